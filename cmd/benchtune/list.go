// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benchtune/benchtune/internal/modhost"
	"github.com/benchtune/benchtune/internal/workspace"
	"github.com/benchtune/benchtune/pkg/bench"

	"github.com/spf13/cobra"
)

func newListCommand(app *App, root *rootFlagValues) *cobra.Command {
	var debugBuild bool

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List discovered modules, suites and benchmarks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.listCommand(cmd.Context(), root, debugBuild)
		},
	}
	listCmd.Flags().BoolVar(&debugBuild, "debug-build", false, "list plugins under bin/Debug")
	return listCmd
}

func (app *App) listCommand(ctx context.Context, root *rootFlagValues, debugBuild bool) error {
	s, err := app.newSession(ctx, root, func(opts *workspace.Options) {
		if debugBuild {
			opts.AllowDebugBuild = true
		}
	})
	if err != nil {
		return app.fail(err, root.verbose, "auto")
	}

	set, err := s.ws.LoadBenchmarkModules(ctx)
	if err != nil {
		return app.fail(discoveryError(err), s.verbose, glamourStyle(s.cfg))
	}

	opts := s.ws.Options()
	fmt.Fprintf(app.stdout, "%s %s\n\n",
		TitleStyle.Render("Benchmark modules in"),
		SubtitleStyle.Render(workspace.TuningDirectory(opts)+" ["+workspace.BuildOutputSegment(opts)+"]"))

	for _, m := range set.Modules() {
		writeModule(app.stdout, m)
	}
	for _, d := range set.Diagnostics() {
		fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render("skipped"), d.String())
	}
	return nil
}

func writeModule(w io.Writer, m modhost.Module) {
	id := m.Identity()
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render(id.Name), SubtitleStyle.Render(id.ModulePath+"@"+id.Version+"  "+m.Path()))

	suites, err := moduleSuites(m)
	if err != nil {
		fmt.Fprintf(w, "  %s %v\n\n", ErrorStyle.Render("✗"), err)
		return
	}
	for _, s := range suites {
		line := "  " + TitleStyle.Render(s.Name)
		if len(s.Requires) > 0 {
			line += SubtitleStyle.Render(" (requires " + strings.Join(s.Requires, ", ") + ")")
		}
		fmt.Fprintln(w, line)
		for _, b := range s.Benchmarks {
			fmt.Fprintf(w, "    %s\n", b.Name)
		}
	}
	fmt.Fprintln(w)
}

// moduleSuites reads the suites exported by m.
func moduleSuites(m modhost.Module) ([]bench.Suite, error) {
	sym, err := m.Lookup(bench.SuitesSymbol)
	if err != nil {
		return nil, err
	}
	return bench.FromSymbol(sym)
}
