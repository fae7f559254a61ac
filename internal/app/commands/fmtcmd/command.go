package fmtcmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "rewrite resource files in canonical form",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, args)
			if err != nil {
				return command.WrapError(err)
			}

			return command.WrapError(execute(ctx, cmd, ws))
		},
	}
	command.AddSaveFlags(cmd)
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace) error {
	before, err := filesys.ComputeFilesHash(ws.Paths())
	if err != nil {
		return fmt.Errorf("hash files: %w", err)
	}
	saved, err := command.SaveWorkspace(ctx, cmd, ws, workspace.WithAll(true))
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	after, err := filesys.ComputeFilesHash(ws.Paths())
	if err != nil {
		return fmt.Errorf("hash files: %w", err)
	}

	if before == after {
		slog.Info("Resource files are already formatted", slog.Any("files", saved))
		return nil
	}
	slog.Info("Resource files formatted", slog.Any("files", saved))
	return nil
}
