package setcmd

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
		Use:   "set KEY --value FILE=VALUE...",
		Short: "change the values of an existing key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := command.GetValues(cmd)
			if err != nil {
				return err
			}
			ws, err := command.OpenWorkspace(ctx, cmd, nil)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(ctx, cmd, ws, args[0], values))
		},
	}
	command.AddValueFlag(cmd)
	command.AddSaveFlags(cmd)
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace, key string, values map[string]string) error {
	if err := ws.Edit(key, values); err != nil {
		return fmt.Errorf("edit key: %w", err)
	}
	saved, err := command.SaveWorkspace(ctx, cmd, ws)
	if err != nil {
		return err
	}
	slog.Info("Key updated", slog.String("key", key), slog.Any("files", saved))
	return nil
}
