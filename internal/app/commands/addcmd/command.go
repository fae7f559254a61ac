package addcmd

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
		Use:   "add KEY --value FILE=VALUE...",
		Short: "add a key with one value per file",
		Long:  "Adds KEY to every file named by a --value flag. Existing values are replaced.",
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

			return command.WrapError(execute(ctx, cmd, ws, workspace.PendingEdit{Key: args[0], Values: values}))
		},
	}
	command.AddValueFlag(cmd)
	command.AddSaveFlags(cmd)
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace, edit workspace.PendingEdit) error {
	if err := ws.Add(edit); err != nil {
		return fmt.Errorf("add key: %w", err)
	}
	saved, err := command.SaveWorkspace(ctx, cmd, ws)
	if err != nil {
		return err
	}
	slog.Info("Key added", slog.String("key", edit.Key), slog.Any("files", saved))
	return nil
}
