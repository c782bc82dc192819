// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/benchtune/benchtune/internal/config"
	"github.com/benchtune/benchtune/internal/engine"
	"github.com/benchtune/benchtune/internal/issue"
	"github.com/benchtune/benchtune/internal/workspace"
	"github.com/benchtune/benchtune/pkg/types"
)

// exitCodeFor classifies err into a process exit code.
func exitCodeFor(err error) types.ExitCode {
	switch {
	case err == nil:
		return types.ExitSuccess
	case errors.Is(err, workspace.ErrNoModulesFound):
		return types.ExitNoModules
	case errors.Is(err, workspace.ErrInvalidConfiguration),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, engine.ErrUnknownExporter):
		return types.ExitUsage
	}
	if is := issue.IssueOf(err); is != nil && is.Id() == issue.ConfigLoadFailedId {
		return types.ExitUsage
	}
	return types.ExitFailure
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail prints remediation for err to stderr and wraps it in an ExitError.
// The error message itself is printed by the command runner.
func (app *App) fail(err error, verbose bool, style string) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	writeRemediation(app.stderr, err, verbose, style)
	return &ExitError{Code: exitCodeFor(err), Err: err}
}

func writeRemediation(w io.Writer, err error, verbose bool, style string) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		switch {
		case verbose:
			fmt.Fprintln(w, VerboseStyle.Render(ae.Format(true)))
		case ae.HasSuggestions():
			for _, s := range ae.Suggestions {
				fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render("•"), s)
			}
		}
	}

	if is := issue.IssueOf(err); is != nil {
		if rendered, renderErr := is.Render(style); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}
