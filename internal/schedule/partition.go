/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"sort"
	"time"
)

// PartitionOpts holds the tolerances used to derive free and busy windows.
type PartitionOpts struct {
	BusyMerge time.Duration // targets closer than this collapse into one busy window
	FreeGrid  time.Duration // sampling step for free-time detection
	FreeGuard time.Duration // settling margin excluded around each observation
	FreeJoin  time.Duration // adjacent free samples within this join into one window
}

// DefaultPartitionOpts matches station operating practice.
func DefaultPartitionOpts() PartitionOpts {
	return PartitionOpts{
		BusyMerge: 45 * time.Minute,
		FreeGrid:  2 * time.Minute,
		FreeGuard: 20 * time.Minute,
		FreeJoin:  120 * time.Second,
	}
}

// Partition derives the free and busy windows of a scheduling window from
// the admitted targets' finalized intervals.
//
// Busy and free windows are independent derivations: the guard margin
// shrinks free windows past the literal busy extents, so the two sets do not
// tile the window exactly.
func Partition(admitted []*Target, window Window, opts PartitionOpts) (free, busy []Window) {
	targets := make([]*Target, len(admitted))
	copy(targets, admitted)
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Final.Start.Before(targets[j].Final.Start)
	})

	busy = mergeBusy(targets, opts.BusyMerge)
	free = sampleFree(targets, window, opts)
	return free, busy
}

// mergeBusy collapses start-sorted finalized intervals whose gaps are within
// the merge tolerance.
func mergeBusy(sorted []*Target, merge time.Duration) []Window {
	var busy []Window
	for _, t := range sorted {
		if len(busy) > 0 && t.Final.Start.Sub(busy[len(busy)-1].Stop) <= merge {
			if t.Final.Stop.After(busy[len(busy)-1].Stop) {
				busy[len(busy)-1].Stop = t.Final.Stop
			}
			continue
		}
		busy = append(busy, t.Final)
	}
	return busy
}

// sampleFree walks the window on a fixed grid, keeps the instants outside
// every guarded observation, and joins consecutive samples into windows.
// Zero-length windows (a single isolated sample) are dropped.
func sampleFree(targets []*Target, window Window, opts PartitionOpts) []Window {
	var samples []time.Time
	for t := window.Start; t.Before(window.Stop); t = t.Add(opts.FreeGrid) {
		clear := true
		for _, target := range targets {
			if !t.Before(target.Final.Start.Add(-opts.FreeGuard)) && !t.After(target.Final.Stop.Add(opts.FreeGuard)) {
				clear = false
				break
			}
		}
		if clear {
			samples = append(samples, t)
		}
	}
	if len(samples) == 0 {
		return nil
	}

	windows := []Window{{Start: samples[0], Stop: samples[0]}}
	for _, s := range samples {
		if s.Sub(windows[len(windows)-1].Stop) <= opts.FreeJoin {
			windows[len(windows)-1].Stop = s
		} else {
			windows = append(windows, Window{Start: s, Stop: s})
		}
	}

	kept := windows[:0]
	for _, w := range windows {
		if w.Valid() {
			kept = append(kept, w)
		}
	}
	return kept
}
