package getcmd

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
		Use:   "get KEY",
		Short: "print the value of a key in each file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, nil)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(cmd.OutOrStdout(), ws, args[0]))
		},
	}
}

func execute(out io.Writer, ws *workspace.Workspace, key string) error {
	found := false
	for _, name := range ws.Names() {
		v, ok := ws.Value(name, key)
		if !ok {
			continue
		}
		found = true
		if _, err := fmt.Fprintf(out, "%s: %s\n", name, command.FormatValue(v)); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", workspace.ErrKeyNotFound, key)
	}
	return nil
}
