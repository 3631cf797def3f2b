/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Plan is the finished output of one scheduling run: the admitted targets in
// start order with beam assignments, the free/busy partition, and the
// deferred command sequence.
type Plan struct {
	Window   Window // window actually scheduled, after the initialization lead
	Targets  []*Target
	Free     []Window
	Busy     []Window
	Commands []Command

	Budget    time.Duration // capacity at the start of the run
	Remaining time.Duration
}

// TimelineEntry is one row of the chronological run report.
type TimelineEntry struct {
	At   time.Time
	Info string
}

// Timeline merges commands and target start/stop events into one sorted
// report, the shape the operators' run log uses.
func (p *Plan) Timeline() []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(p.Commands)+2*len(p.Targets))
	for _, c := range p.Commands {
		entries = append(entries, TimelineEntry{At: c.At, Info: c.Path})
	}
	for _, t := range p.Targets {
		entries = append(entries, TimelineEntry{
			At:   t.Final.Start,
			Info: fmt.Sprintf("%s starts on beams %d and %d", t.Name, t.Beams[0], t.Beams[1]),
		})
		entries = append(entries, TimelineEntry{
			At:   t.Final.Stop,
			Info: fmt.Sprintf("%s stops on beams %d and %d", t.Name, t.Beams[0], t.Beams[1]),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.Before(entries[j].At)
	})
	return entries
}

// Allocated returns the total admitted recording time.
func (p *Plan) Allocated() time.Duration {
	return p.Budget - p.Remaining
}
