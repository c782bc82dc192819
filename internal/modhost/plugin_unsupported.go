// SPDX-License-Identifier: MPL-2.0

//go:build !cgo || !(linux || darwin || freebsd)

package modhost

const pluginsSupported = false
