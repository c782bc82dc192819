// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/benchtune/benchtune/internal/config"

	"github.com/charmbracelet/log"
)

// newLogger returns a slog logger backed by charmbracelet/log. Verbose
// output adds debug records and timestamps.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		ReportTimestamp: verbose,
	})
	return slog.New(handler)
}
