package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/acronis/go-resedit/pkg/slogex"
	"github.com/acronis/go-resedit/pkg/workspace"
)

// Run shows the editor until the user quits. Files changed by other programs
// are reported to the editor while it runs.
func Run(ctx context.Context, ws *workspace.Workspace, opts ...Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, ws, opts...), tea.WithContext(ctx), tea.WithAltScreen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := ws.Watch(gctx, func(name string) {
			p.Send(fileChangedMsg{name: name})
		})
		if err != nil {
			slog.Warn("File watcher stopped", slogex.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("run editor: %w", err)
		}
		return nil
	})
	return g.Wait()
}
