/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Command is one deferred station command with its execution time.
type Command struct {
	At   time.Time
	Path string
	Kind string // command kind name, or "init" / "default_mode"
}

// Duration wraps time.Duration with time.ParseDuration YAML decoding, so a
// kind table can say "4h" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// KindCommand is one command fired by a maintenance kind, offset from the
// firing instant.
type KindCommand struct {
	Offset Duration `yaml:"offset"`
	Path   string   `yaml:"path"`
}

// Kind is a rate-limited maintenance task. Kinds are evaluated in table
// order at each step of a free window; at most one fires per step.
type Kind struct {
	Name           string        `yaml:"name"`
	Cooldown       Duration      `yaml:"cooldown"`
	MinWindow      Duration      `yaml:"min_window"`       // smallest free window eligible for a single firing
	MinLocalHour   int           `yaml:"min_local_hour"`   // 0 means no hour-of-day constraint
	AfterFireDelay Duration      `yaml:"after_fire_delay"` // extra cooldown applied once fired
	Commands       []KindCommand `yaml:"commands"`
}

// DefaultKinds is the built-in station maintenance table: array health
// checks every 4 h, recorder selection scans every 6 h, and a full recorder
// database scan every 4 h during the working day, backing off a full day
// once it has run.
func DefaultKinds() []Kind {
	return []Kind{
		{
			Name:      "health_check",
			Cooldown:  Duration(4 * time.Hour),
			MinWindow: Duration(15 * time.Minute),
			Commands: []KindCommand{
				{Offset: 0, Path: "/home/op1/MCS/exec/acquireHealthCheckAndProcess.py"},
			},
		},
		{
			Name:      "drsu_scan",
			Cooldown:  Duration(6 * time.Hour),
			MinWindow: Duration(6 * time.Minute),
			Commands: []KindCommand{
				{Offset: 0, Path: "/home/op1/MCS/sch/operatorScripts/selectBestDRSU.py --all"},
				{Offset: Duration(2 * time.Minute), Path: "/home/op1/MCS/sch/operatorScripts/postDRSUStatus.py"},
			},
		},
		{
			Name:           "drsu_database",
			Cooldown:       Duration(4 * time.Hour),
			MinWindow:      Duration(45 * time.Minute),
			MinLocalHour:   8,
			AfterFireDelay: Duration(24 * time.Hour),
			Commands: []KindCommand{
				{Offset: 0, Path: "/home/op1/MCS/sch/operatorScripts/scanDRSUs.sh"},
			},
		},
	}
}

// LoadKinds reads a kind table from a YAML file.
func LoadKinds(path string) ([]Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maintenance kinds: %w", err)
	}
	var kinds []Kind
	if err := yaml.Unmarshal(data, &kinds); err != nil {
		return nil, fmt.Errorf("parse maintenance kinds: %w", err)
	}
	for _, k := range kinds {
		if k.Name == "" {
			return nil, fmt.Errorf("maintenance kind with empty name")
		}
		if len(k.Commands) == 0 {
			return nil, fmt.Errorf("maintenance kind %s has no commands", k.Name)
		}
	}
	return kinds, nil
}

// Placement inserts maintenance commands into free windows and bracketing
// commands around busy windows.
type Placement struct {
	Kinds           []Kind
	InitPath        string        // session initialization command
	InitLead        time.Duration // how far before each busy window to initialize
	DefaultModePath string        // command restoring the idle observing mode
	StepOffset      time.Duration // first step into a long free window
	StepInterval    time.Duration
	TailMargin      time.Duration // keep-clear margin at the end of a long window
	LongWindow      time.Duration // threshold for the stepping branch
	StartSlack      time.Duration // default-mode suppression near the window start
	logger          zerolog.Logger
}

// NewPlacement builds a placement engine over the given kind table.
func NewPlacement(kinds []Kind, logger zerolog.Logger) *Placement {
	return &Placement{
		Kinds:           kinds,
		InitPath:        "/home/op1/MCS/sch/INIdp.sh",
		InitLead:        20 * time.Minute,
		DefaultModePath: "/home/op1/MCS/sch/startTBN_split.sh",
		StepOffset:      4 * time.Minute,
		StepInterval:    15 * time.Minute,
		TailMargin:      6 * time.Minute,
		LongWindow:      45 * time.Minute,
		StartSlack:      3 * time.Minute,
		logger:          logger.With().Str("component", "maintenance").Logger(),
	}
}

// Place walks the free windows in order and emits rate-limited maintenance
// commands, plus one initialization command ahead of each busy window.
// Cooldowns are seeded at nominalStart minus the lookback, so every kind is
// eligible at the top of the window unless it fired shortly before. The
// returned commands are in chronological order.
func (p *Placement) Place(free, busy []Window, sched Window, nominalStart time.Time, lookback time.Duration, admitted []*Target) []Command {
	var cmds []Command

	for _, bw := range busy {
		at := bw.Start.Add(-p.InitLead).Truncate(time.Minute)
		cmds = append(cmds, Command{At: at, Path: p.InitPath, Kind: "init"})
	}

	lastFired := make(map[string]time.Time, len(p.Kinds))
	for _, k := range p.Kinds {
		lastFired[k.Name] = nominalStart.Add(-lookback)
	}

	for i, fw := range free {
		length := fw.Duration()

		switch {
		case length >= p.LongWindow:
			if i == 0 || absDiff(fw.Start, sched.Start) >= p.StartSlack {
				cmds = append(cmds, Command{At: fw.Start, Path: p.DefaultModePath, Kind: "default_mode"})
			}

			step := fw.Start.Add(p.StepOffset).Truncate(time.Minute)
			for !step.After(fw.Stop.Add(-p.TailMargin)) {
				if fired, ok := p.tryFire(lastFired, step, 0); ok {
					cmds = append(cmds, fired...)
				}
				step = step.Add(p.StepInterval)
			}

		case length >= p.TailMargin:
			offset := 2 * time.Minute
			if length >= 15*time.Minute {
				offset = p.StepOffset
			}
			at := fw.Start.Add(offset).Truncate(time.Minute)
			if fired, ok := p.tryFire(lastFired, at, length); ok {
				cmds = append(cmds, fired...)
			}

		default:
			// A sliver at the very end of the session gets the default-mode
			// command once every observation has finished.
			if i == len(free)-1 && afterAllTargets(fw.Start, admitted) {
				cmds = append(cmds, Command{At: fw.Start, Path: p.DefaultModePath, Kind: "default_mode"})
			}
		}
	}

	SortCommands(cmds)
	return cmds
}

// tryFire evaluates the kind table at one step. Kinds are tried in table
// order and at most one fires; minWindow of 0 means the stepping branch,
// where every kind is eligible.
func (p *Placement) tryFire(lastFired map[string]time.Time, at time.Time, minWindow time.Duration) ([]Command, bool) {
	for _, k := range p.Kinds {
		if minWindow > 0 && time.Duration(k.MinWindow) > minWindow {
			continue
		}
		if !at.After(lastFired[k.Name].Add(time.Duration(k.Cooldown))) {
			continue
		}
		if k.MinLocalHour > 0 && at.UTC().Hour() < k.MinLocalHour {
			continue
		}

		var fired []Command
		last := at
		for _, c := range k.Commands {
			cmdAt := at.Add(time.Duration(c.Offset))
			fired = append(fired, Command{At: cmdAt, Path: c.Path, Kind: k.Name})
			last = cmdAt
		}
		lastFired[k.Name] = last.Add(time.Duration(k.AfterFireDelay))
		p.logger.Debug().Str("kind", k.Name).Time("at", at).Msg("maintenance task placed")
		return fired, true
	}
	return nil, false
}

func afterAllTargets(t time.Time, admitted []*Target) bool {
	if len(admitted) == 0 {
		return false
	}
	for _, target := range admitted {
		if !t.After(target.Final.Stop) {
			return false
		}
	}
	return true
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// SortCommands orders commands chronologically, preserving emission order
// for equal timestamps.
func SortCommands(cmds []Command) {
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].At.Before(cmds[j].At)
	})
}
