package searchcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "find keys, or values when no key matches, containing QUERY",
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

func execute(out io.Writer, ws *workspace.Workspace, query string) error {
	matches := ws.Search(query)
	if len(matches) == 0 {
		slog.Info("No matches", slog.String("query", query))
		return nil
	}
	for _, m := range matches {
		if _, err := fmt.Fprintf(out, "%s: %s = %s\n", m.File, m.Key, command.FormatValue(m.Value)); err != nil {
			return err
		}
	}
	return nil
}
