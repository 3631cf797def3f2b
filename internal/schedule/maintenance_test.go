package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testLookback = 12 * time.Hour

func newTestPlacement(t *testing.T) *Placement {
	t.Helper()
	return NewPlacement(DefaultKinds(), zerolog.Nop())
}

func commandsOfKind(cmds []Command, kind string) []Command {
	var out []Command
	for _, c := range cmds {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestPlaceLongWindowStepsThroughKindTable(t *testing.T) {
	p := newTestPlacement(t)

	// 02:00 UTC keeps the hour-gated database scan out of play.
	sched := win(0, 50)
	free := []Window{sched}
	cmds := p.Place(free, nil, sched, sched.Start, testLookback, nil)

	dm := commandsOfKind(cmds, "default_mode")
	if len(dm) != 1 || !dm[0].At.Equal(sched.Start) {
		t.Fatalf("expected one default-mode command at window start, got %v", dm)
	}

	hc := commandsOfKind(cmds, "health_check")
	if len(hc) != 1 {
		t.Fatalf("expected one health check, got %v", hc)
	}
	if want := base.Add(4 * time.Minute); !hc[0].At.Equal(want) {
		t.Errorf("health check at %v, want %v", hc[0].At, want)
	}

	scan := commandsOfKind(cmds, "drsu_scan")
	if len(scan) != 2 {
		t.Fatalf("expected two recorder-scan commands, got %v", scan)
	}
	if want := base.Add(19 * time.Minute); !scan[0].At.Equal(want) {
		t.Errorf("first scan command at %v, want %v", scan[0].At, want)
	}
	if want := base.Add(21 * time.Minute); !scan[1].At.Equal(want) {
		t.Errorf("second scan command at %v, want %v", scan[1].At, want)
	}

	if db := commandsOfKind(cmds, "drsu_database"); len(db) != 0 {
		t.Errorf("database scan fired outside its allowed hours: %v", db)
	}
}

func TestPlaceHourGateAdmitsDatabaseScan(t *testing.T) {
	p := newTestPlacement(t)

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	sched := Window{Start: start, Stop: start.Add(50 * time.Minute)}
	cmds := p.Place([]Window{sched}, nil, sched, sched.Start, testLookback, nil)

	db := commandsOfKind(cmds, "drsu_database")
	if len(db) != 1 {
		t.Fatalf("expected one database scan, got %v", db)
	}
	if want := start.Add(34 * time.Minute); !db[0].At.Equal(want) {
		t.Errorf("database scan at %v, want %v", db[0].At, want)
	}
}

func TestPlaceCooldownSuppressesSecondWindow(t *testing.T) {
	p := newTestPlacement(t)

	sched := win(0, 180)
	free := []Window{win(0, 50), win(60, 110)}
	cmds := p.Place(free, nil, sched, sched.Start, testLookback, nil)

	if hc := commandsOfKind(cmds, "health_check"); len(hc) != 1 {
		t.Errorf("health check fired again inside its cooldown: %v", hc)
	}
	if scan := commandsOfKind(cmds, "drsu_scan"); len(scan) != 2 {
		t.Errorf("recorder scan fired again inside its cooldown: %v", scan)
	}
	// Both long windows restore the idle mode.
	if dm := commandsOfKind(cmds, "default_mode"); len(dm) != 2 {
		t.Errorf("expected a default-mode command per long window, got %v", dm)
	}
}

func TestPlaceSingleShotWindow(t *testing.T) {
	p := newTestPlacement(t)

	tests := []struct {
		name     string
		length   time.Duration
		wantKind string
		wantAt   time.Duration
	}{
		{"half hour fires highest kind", 30 * time.Minute, "health_check", 4 * time.Minute},
		{"ten minutes skips to a fitting kind", 10 * time.Minute, "drsu_scan", 2 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := Window{Start: base, Stop: base.Add(tt.length)}
			cmds := p.Place([]Window{sched}, nil, sched, sched.Start, testLookback, nil)

			fired := commandsOfKind(cmds, tt.wantKind)
			if len(fired) == 0 {
				t.Fatalf("expected %s to fire, got %v", tt.wantKind, cmds)
			}
			if want := base.Add(tt.wantAt); !fired[0].At.Equal(want) {
				t.Errorf("%s at %v, want %v", tt.wantKind, fired[0].At, want)
			}
			for _, c := range cmds {
				if c.Kind != tt.wantKind {
					t.Errorf("unexpected command %+v in a single-shot window", c)
				}
			}
		})
	}
}

func TestPlaceInitBracketsBusyWindows(t *testing.T) {
	p := newTestPlacement(t)

	sched := win(0, 12*60)
	busy := []Window{win(60, 120), win(300, 400)}
	cmds := p.Place(nil, busy, sched, sched.Start, testLookback, nil)

	inits := commandsOfKind(cmds, "init")
	if len(inits) != 2 {
		t.Fatalf("expected one init command per busy window, got %v", inits)
	}
	for i, bw := range busy {
		want := bw.Start.Add(-p.InitLead).Truncate(time.Minute)
		if !inits[i].At.Equal(want) {
			t.Errorf("init %d at %v, want %v", i, inits[i].At, want)
		}
		if inits[i].Path != p.InitPath {
			t.Errorf("init %d path = %q, want %q", i, inits[i].Path, p.InitPath)
		}
	}
}

func TestPlaceTailSliverRestoresDefaultMode(t *testing.T) {
	p := newTestPlacement(t)

	sched := win(0, 8*60)
	target := admittedAt("a", 120, 180)
	sliver := win(7*60+56, 8*60)

	cmds := p.Place([]Window{sliver}, nil, sched, sched.Start, testLookback, []*Target{target})
	dm := commandsOfKind(cmds, "default_mode")
	if len(dm) != 1 || !dm[0].At.Equal(sliver.Start) {
		t.Fatalf("expected default-mode at the tail sliver start, got %v", cmds)
	}

	// A sliver before the observation finishes stays untouched.
	early := win(30, 33)
	cmds = p.Place([]Window{early, sliver}, nil, sched, sched.Start, testLookback, []*Target{target})
	for _, c := range cmds {
		if c.Kind == "default_mode" && c.At.Equal(early.Start) {
			t.Errorf("default-mode placed in a mid-session sliver: %+v", c)
		}
	}
}

func TestPlaceCommandsChronological(t *testing.T) {
	p := newTestPlacement(t)

	// Init commands for late busy windows are emitted before the free-window
	// walk; the returned list must still come out in time order.
	sched := win(0, 8*60)
	free := []Window{win(0, 50)}
	busy := []Window{win(300, 360)}
	cmds := p.Place(free, busy, sched, sched.Start, testLookback, nil)

	if len(cmds) < 2 {
		t.Fatalf("expected both maintenance and init commands, got %v", cmds)
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i].At.Before(cmds[i-1].At) {
			t.Fatalf("command %d (%s at %v) precedes command %d (%s at %v)",
				i, cmds[i].Kind, cmds[i].At, i-1, cmds[i-1].Kind, cmds[i-1].At)
		}
	}
	if cmds[0].Kind == "init" {
		t.Error("init for the late busy window sorted first")
	}
}

func TestLoadKinds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kinds.yaml")
	doc := `
- name: health_check
  cooldown: 4h
  min_window: 15m
  commands:
    - offset: 0s
      path: /opt/station/health.sh
- name: deep_scan
  cooldown: 6h
  min_window: 6m
  min_local_hour: 8
  after_fire_delay: 24h
  commands:
    - offset: 0s
      path: /opt/station/scan.sh
    - offset: 2m
      path: /opt/station/report.sh
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	kinds, err := LoadKinds(path)
	if err != nil {
		t.Fatalf("LoadKinds: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(kinds))
	}
	if got := time.Duration(kinds[0].Cooldown); got != 4*time.Hour {
		t.Errorf("cooldown = %v, want 4h", got)
	}
	if got := time.Duration(kinds[1].Commands[1].Offset); got != 2*time.Minute {
		t.Errorf("second command offset = %v, want 2m", got)
	}
	if kinds[1].MinLocalHour != 8 {
		t.Errorf("min_local_hour = %d, want 8", kinds[1].MinLocalHour)
	}
}

func TestLoadKindsRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty name", "- name: \"\"\n  commands:\n    - {offset: 0s, path: /x}\n"},
		{"no commands", "- name: lonely\n"},
		{"bad duration", "- name: x\n  cooldown: soon\n  commands:\n    - {offset: 0s, path: /x}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "kinds.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadKinds(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSortCommands(t *testing.T) {
	cmds := []Command{
		{At: base.Add(30 * time.Minute), Path: "c"},
		{At: base, Path: "a"},
		{At: base, Path: "b"},
		{At: base.Add(10 * time.Minute), Path: "d"},
	}
	SortCommands(cmds)

	wantOrder := []string{"a", "b", "d", "c"}
	for i, w := range wantOrder {
		if cmds[i].Path != w {
			t.Fatalf("position %d = %q, want %q (got %v)", i, cmds[i].Path, w, cmds)
		}
	}
}
