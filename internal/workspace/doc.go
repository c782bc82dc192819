// SPDX-License-Identifier: MPL-2.0

// Package workspace discovers prebuilt benchmark modules in a repository and
// reconciles the reports produced by running them.
//
// Discovery walks the tuning directory for plugin binaries named
// *.<suffix>.so that sit under bin/<Debug|Release>/<target>, loads each one
// at most once per identity, and installs a fallback resolver so modules
// required by a suite can be found in the same tree. After a run the
// transient results directory is moved into the versioned tuning archive.
package workspace
