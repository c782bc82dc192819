// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/benchtune/benchtune/internal/watch"
	"github.com/benchtune/benchtune/internal/workspace"
)

// watchAndRerun blocks until ctx is cancelled, rerunning the benchmarks in
// a fresh process whenever plugins under the build output segment change.
func (app *App) watchAndRerun(ctx context.Context, s *session, args []string) error {
	opts := s.ws.Options()
	w, err := watch.New(watch.Config{
		Root:     workspace.TuningDirectory(opts),
		Patterns: watch.PluginPatterns(workspace.BuildOutputSegment(opts), opts.ModuleSuffix.String()),
		Logger:   s.logger,
		OnChange: func(ctx context.Context, b watch.Batch) error {
			fmt.Fprintf(app.stdout, "\n%s %d plugin(s) changed, %d removed. Rerunning...\n",
				CmdStyle.Render("→"), len(b.Changed), len(b.Removed))
			err := app.rerun(ctx, args)
			fmt.Fprintf(app.stdout, "\n%s Watching %s (Ctrl+C to stop)...\n", CmdStyle.Render("→"), watchedDir(opts))
			return err
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching %s (Ctrl+C to stop)...\n", CmdStyle.Render("→"), watchedDir(opts))
	return w.Run(ctx)
}

// watchedDir names the watched directory for status lines.
func watchedDir(opts workspace.Options) string {
	return SubtitleStyle.Render(workspace.TuningDirectory(opts))
}
