package deletecmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete KEY",
		Short: "delete a key from all files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, nil)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(ctx, cmd, ws, args[0]))
		},
	}
	command.AddSaveFlags(cmd)
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace, key string) error {
	affected := ws.Delete(key)
	if len(affected) == 0 {
		slog.Info("Key not found, nothing to delete", slog.String("key", key))
		return nil
	}
	if _, err := command.SaveWorkspace(ctx, cmd, ws); err != nil {
		return err
	}
	slog.Info("Key deleted", slog.String("key", key), slog.Any("files", affected))
	return nil
}
