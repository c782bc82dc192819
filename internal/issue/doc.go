// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Known failure classes also have a Markdown catalog
// entry, rendered with glamour, that the CLI prints below the error.
package issue
