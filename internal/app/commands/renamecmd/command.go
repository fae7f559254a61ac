package renamecmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "rename a key in all files keeping its position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, nil)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(ctx, cmd, ws, args[0], args[1]))
		},
	}
	command.AddSaveFlags(cmd)
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace, oldKey, newKey string) error {
	affected, err := ws.Rename(oldKey, newKey)
	if err != nil {
		return fmt.Errorf("rename key: %w", err)
	}
	if _, err := command.SaveWorkspace(ctx, cmd, ws); err != nil {
		return err
	}
	slog.Info("Key renamed", slog.String("from", oldKey), slog.String("to", newKey), slog.Any("files", affected))
	return nil
}
