// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from the file given by --config, else from
// config.cue in the user configuration directory (~/.config/benchtune on
// Linux, ~/Library/Application Support/benchtune on macOS, %APPDATA%\benchtune
// on Windows), else from benchtune.cue in the working directory. Files are
// validated against the embedded CUE schema (config_schema.cue) and merged
// over the defaults; BENCHTUNE_* environment variables override both.
package config
