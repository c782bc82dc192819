// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/benchtune/benchtune/internal/issue"
	"github.com/benchtune/benchtune/internal/workspace"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// ErrReportNotFound is returned when no archived report matches a name.
var ErrReportNotFound = errors.New("report not found")

func newReportsCommand(app *App, root *rootFlagValues) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect archived benchmark reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	reportsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived report files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.listReports(cmd.Context(), root)
		},
	})

	reportsCmd.AddCommand(&cobra.Command{
		Use:   "show <suite|file>",
		Short: "Render an archived markdown report",
		Long: `Render an archived GitHub markdown report in the terminal.

The argument is a report file name, or a module, suite or "module.suite"
name; the first markdown report whose name contains it is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showReport(cmd.Context(), root, args[0])
		},
	})

	return reportsCmd
}

func (app *App) listReports(ctx context.Context, root *rootFlagValues) error {
	s, err := app.newSession(ctx, root, nil)
	if err != nil {
		return app.fail(err, root.verbose, "auto")
	}

	archive := s.ws.ReportsTuningPath()
	files, err := archivedReports(archive)
	if err != nil {
		return app.fail(err, s.verbose, glamourStyle(s.cfg))
	}

	fmt.Fprintf(app.stdout, "%s %s\n\n", TitleStyle.Render("Reports in"), SubtitleStyle.Render(archive))
	if len(files) == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(none archived yet)"))
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(app.stdout, "  %s\n", f)
	}
	return nil
}

func (app *App) showReport(ctx context.Context, root *rootFlagValues, name string) error {
	s, err := app.newSession(ctx, root, nil)
	if err != nil {
		return app.fail(err, root.verbose, "auto")
	}
	style := glamourStyle(s.cfg)

	archive := s.ws.ReportsTuningPath()
	path, err := findReport(archive, name)
	if err != nil {
		return app.fail(issue.NewErrorContext().
			WithOperation("show report").
			WithResource(name).
			WithIssue(issue.ReportNotFoundId).
			WithSuggestion("Run 'benchtune reports list' to see archived reports").
			Wrap(err).
			BuildError(), s.verbose, style)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return app.fail(fmt.Errorf("read report: %w", err), s.verbose, style)
	}
	rendered, err := glamour.Render(string(data), style)
	if err != nil {
		return app.fail(fmt.Errorf("render report: %w", err), s.verbose, style)
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}

// archivedReports returns the sorted report file names in archive. A
// missing archive has no reports.
func archivedReports(archive string) ([]string, error) {
	entries, err := os.ReadDir(archive)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report archive %s: %w", archive, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.Contains(e.Name(), "-report") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

// findReport resolves name to a markdown report in archive: an exact file
// name wins, otherwise the first markdown report whose prefix contains the
// report-safe form of name, ignoring case.
func findReport(archive, name string) (string, error) {
	files, err := archivedReports(archive)
	if err != nil {
		return "", err
	}
	if slices.Contains(files, name) {
		return filepath.Join(archive, name), nil
	}

	needle := strings.ToLower(workspace.ReportSafeName(name))
	for _, f := range files {
		if !strings.HasSuffix(f, ".md") {
			continue
		}
		prefix, _, _ := strings.Cut(f, "-report")
		if strings.Contains(strings.ToLower(prefix), needle) {
			return filepath.Join(archive, f), nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrReportNotFound, name, archive)
}
