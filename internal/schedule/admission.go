/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// ErrNeverVisible is returned by a Geometry when a target never rises above
// the local horizon. The admission engine treats it as an ordinary filtering
// outcome, not a failure.
var ErrNeverVisible = errors.New("target never rises above the horizon")

// ErrInvalidWindow rejects scheduling windows with stop <= start.
var ErrInvalidWindow = errors.New("invalid scheduling window: stop must be after start")

// Geometry supplies transit timing for targets. FeasibleInterval returns the
// padded interval, centered on transit, in which the target would be
// observed; the interval may extend beyond the scheduling window, in which
// case the engine rejects the target. A target that never transits above the
// horizon yields ErrNeverVisible.
type Geometry interface {
	FeasibleInterval(t *Target, w Window, padding time.Duration) (Window, error)
}

// State is the working set of one scheduling run.
type State struct {
	Window    Window
	Remaining time.Duration // recording capacity still unallocated
	Admitted  []*Target     // in admission order until AssignBeams re-sorts
	Load      map[int]time.Duration
}

// Allocated returns the total duration of admitted targets.
func (s *State) Allocated() time.Duration {
	var total time.Duration
	for _, t := range s.Admitted {
		total += t.Duration
	}
	return total
}

// Engine performs target admission and beam assignment.
type Engine struct {
	geo     Geometry
	padding time.Duration // total per-session padding, split across both ends
	logger  zerolog.Logger
}

// NewEngine constructs an admission engine.
func NewEngine(geo Geometry, padding time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		geo:     geo,
		padding: padding,
		logger:  logger.With().Str("component", "admission").Logger(),
	}
}

// Admit walks the catalog in observability-rank order and greedily admits
// every target that is cadence-due, fits the capacity budget, transits
// inside the window, and does not conflict with an earlier admission.
//
// Greedy admission is order-sensitive: a later candidate never displaces an
// earlier one, even when swapping them would pack the window better.
func (e *Engine) Admit(catalog []*Target, window Window, budget time.Duration) (*State, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("%w: %s >= %s", ErrInvalidWindow, window.Start, window.Stop)
	}

	startMJD := MJDDay(window.Start)

	// Most overdue first; the sort is stable so catalog order breaks ties.
	candidates := make([]*Target, len(catalog))
	copy(candidates, catalog)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LastMJD-startMJD < candidates[j].LastMJD-startMJD
	})

	st := &State{
		Window:    window,
		Remaining: budget,
		Load:      make(map[int]time.Duration),
	}

	for _, cand := range candidates {
		// An exact fit is rejected too: the budget boundary is strict.
		if cand.Duration >= st.Remaining {
			e.logger.Debug().Str("target", cand.Name).Msg("insufficient recording capacity")
			continue
		}
		if !cand.Due(startMJD) {
			continue
		}

		padded, err := e.geo.FeasibleInterval(cand, window, e.padding)
		if errors.Is(err, ErrNeverVisible) {
			e.logger.Debug().Str("target", cand.Name).Msg("never visible from this site")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("geometry lookup for %s: %w", cand.Name, err)
		}
		if !window.Contains(padded) {
			e.logger.Debug().Str("target", cand.Name).Msg("transit does not fit the window")
			continue
		}

		final := padded.Inset(e.padding / 2)
		conflict := false
		for _, prev := range st.Admitted {
			if final.Conflicts(prev.Final) {
				e.logger.Debug().
					Str("target", cand.Name).
					Str("blocking", prev.Name).
					Msg("conflicts with an earlier admission")
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		cand.Admitted = true
		cand.Final = final
		st.Remaining -= cand.Duration
		st.Admitted = append(st.Admitted, cand)
		e.logger.Info().
			Str("target", cand.Name).
			Str("window", final.String()).
			Dur("duration", cand.Duration).
			Msg("target admitted")
	}

	return st, nil
}

// AssignBeams re-sorts the admitted list by start time and assigns each
// target to the two least-loaded beams, updating the per-beam load counters.
// Ties between equally loaded beams go to the lower beam number.
func (e *Engine) AssignBeams(st *State, beams []int) {
	for _, b := range beams {
		if _, ok := st.Load[b]; !ok {
			st.Load[b] = 0
		}
	}

	sort.SliceStable(st.Admitted, func(i, j int) bool {
		return st.Admitted[i].Final.Start.Before(st.Admitted[j].Final.Start)
	})

	for _, t := range st.Admitted {
		order := make([]int, len(beams))
		copy(order, beams)
		sort.SliceStable(order, func(i, j int) bool {
			if st.Load[order[i]] != st.Load[order[j]] {
				return st.Load[order[i]] < st.Load[order[j]]
			}
			return order[i] < order[j]
		})

		pair := [2]int{order[0], order[1]}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		t.Beams = pair
		st.Load[pair[0]] += t.Duration
		st.Load[pair[1]] += t.Duration
	}
}
