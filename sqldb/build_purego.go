//go:build !sqlite_cgo
// +build !sqlite_cgo

package sqldb

// Compiled by default. Uses a pure Go SQLite, so no C compiler is required.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
