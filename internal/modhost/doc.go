// SPDX-License-Identifier: MPL-2.0

// Package modhost is the host runtime module system used by benchtune.
//
// Benchmark modules are Go plugins built with -buildmode=plugin. The package
// reads module identity from the build information embedded in every Go
// binary, opens plugins through the standard plugin package, and exposes a
// single resolve hook that other components can install to answer requests
// for modules that have not been loaded yet.
package modhost
