package listcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list [files...]",
		Short: "print every key with the value of each file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, args)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(cmd.OutOrStdout(), ws))
		},
	}
}

func execute(out io.Writer, ws *workspace.Workspace) error {
	names := ws.Names()
	for _, key := range ws.Keys() {
		if _, err := fmt.Fprintln(out, key); err != nil {
			return err
		}
		for _, name := range names {
			v, ok := ws.Value(name, key)
			if !ok {
				v = "<missing>"
			} else {
				v = command.FormatValue(v)
			}
			if _, err := fmt.Fprintf(out, "  %s: %s\n", name, v); err != nil {
				return err
			}
		}
	}
	return nil
}
