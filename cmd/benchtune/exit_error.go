// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/benchtune/benchtune/pkg/types"
)

// ExitError carries the process exit code of a failed command. RunE
// handlers return it instead of calling os.Exit so deferred report
// archiving still runs.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the underlying message, or the bare exit status.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// processExitCode maps the error returned by the command tree to the
// process exit code. Errors that never passed through App.fail, such as
// flag parsing errors, are usage errors.
func processExitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}
