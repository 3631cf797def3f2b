/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, Stop).
type Window struct {
	Start time.Time
	Stop  time.Time
}

// Valid reports whether the window has positive length.
func (w Window) Valid() bool {
	return w.Stop.After(w.Start)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.Stop.Sub(w.Start)
}

// Contains reports whether o lies entirely within w.
func (w Window) Contains(o Window) bool {
	return !o.Start.Before(w.Start) && !o.Stop.After(w.Stop)
}

// Conflicts reports whether the two windows overlap, counting shared
// boundaries as a conflict. Admission uses this stricter test so that
// back-to-back sessions always keep at least an instant between them.
func (w Window) Conflicts(o Window) bool {
	return !w.Stop.Before(o.Start) && !o.Stop.Before(w.Start)
}

// Inset shrinks the window by d on each side.
func (w Window) Inset(d time.Duration) Window {
	return Window{Start: w.Start.Add(d), Stop: w.Stop.Add(-d)}
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.Start.UTC().Format("01/02 15:04:05"), w.Stop.UTC().Format("01/02 15:04:05"))
}

var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// MJDDay returns the integer Modified Julian Day containing t.
func MJDDay(t time.Time) int {
	d := t.UTC().Sub(mjdEpoch)
	day := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		day--
	}
	return day
}
