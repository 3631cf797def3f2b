/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import "time"

// Target is one catalog entry as seen by the scheduling engine. RA and Dec
// are carried opaquely for the geometry adapter and the session renderer.
//
// Beams and Final are assigned during a scheduling run; they are only
// meaningful once Admitted is true.
type Target struct {
	ID       string
	Name     string
	RA       string
	Dec      string
	Duration time.Duration
	Cadence  int // minimum days between observations; <= 0 means opportunistic
	LastMJD  int

	Admitted bool
	Beams    [2]int
	Final    Window // unpadded observation interval
}

// Due reports whether the target's cadence makes it due for observation in a
// window starting on startMJD. Opportunistic targets (cadence <= 0) are
// never due on their own.
func (t *Target) Due(startMJD int) bool {
	return t.Cadence > 0 && startMJD >= t.LastMJD+t.Cadence
}
