// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides filesystem helpers (MustMkdirAll, MustWriteFile) it builds module
// fixture trees: ModuleFixture copies the running test binary, which carries
// real Go build information, to a plugin-shaped path so identity reading is
// exercised for real, and FakeRuntime stands in for plugin opening.
package testutil
