/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version carries build identification for the scheduler binary.
package version

import "fmt"

// Version is the current version of the pulsar scheduler.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/pulsarsched/internal/version.Version=X.Y.Z
var Version = "dev"

// Commit is the git revision the binary was built from.
var Commit = "unknown"

// BuildTime is the UTC build timestamp.
var BuildTime = "unknown"

// String returns a one-line build description.
func String() string {
	return fmt.Sprintf("pulsarsched %s (%s, built %s)", Version, Commit, BuildTime)
}
