package checkcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/acronis/go-stacktrace"
	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "report keys missing from some of the files",
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
	missing := ws.Missing()
	if len(missing) == 0 {
		slog.Info("All keys are present in every file", slog.Int("files", ws.Len()))
		return nil
	}

	st := stacktrace.StackTrace{}
	for _, m := range missing {
		if _, err := fmt.Fprintf(out, "%s: missing in %s\n", m.Key, strings.Join(m.Files, ", ")); err != nil {
			return err
		}
		_ = st.Append(stacktrace.New("missing key",
			stacktrace.WithInfo("key", m.Key),
			stacktrace.WithInfo("files", strings.Join(m.Files, ",")),
			stacktrace.WithType("missing")))
	}
	return fmt.Errorf("%d key(s) missing: %w", len(missing), &st)
}
