package editcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/internal/tui"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [files...]",
		Short: "edit resource files side by side in the terminal",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := command.OpenWorkspace(ctx, cmd, args)
			if err != nil {
				return command.WrapError(err)
			}
			opts, err := command.GetSaveOptions(cmd)
			if err != nil {
				return err
			}

			tuiOpts := []tui.Option{tui.WithSaveOptions(opts...)}
			if name := command.DefaultFile(cmd, args); name != "" {
				tuiOpts = append(tuiOpts, tui.WithColumn(name))
			}
			if err := tui.Run(ctx, ws, tuiOpts...); err != nil {
				return command.WrapError(fmt.Errorf("edit: %w", err))
			}
			return nil
		},
	}
	command.AddSaveFlags(cmd)
	return cmd
}
