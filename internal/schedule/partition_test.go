package schedule

import (
	"testing"
	"time"
)

func admittedAt(name string, startMin, stopMin int) *Target {
	return &Target{
		Name:     name,
		Admitted: true,
		Final:    win(startMin, stopMin),
	}
}

func TestPartitionMergesNearbyBusyWindows(t *testing.T) {
	window := win(0, 12*60)
	targets := []*Target{
		admittedAt("a", 60, 120),
		admittedAt("b", 150, 210), // 30 min gap: merged
		admittedAt("c", 300, 360), // 90 min gap: separate
	}

	_, busy := Partition(targets, window, DefaultPartitionOpts())
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy windows, got %d: %v", len(busy), busy)
	}
	if !busy[0].Start.Equal(base.Add(60*time.Minute)) || !busy[0].Stop.Equal(base.Add(210*time.Minute)) {
		t.Errorf("unexpected merged busy window: %s", busy[0])
	}
	if !busy[1].Start.Equal(base.Add(300*time.Minute)) || !busy[1].Stop.Equal(base.Add(360*time.Minute)) {
		t.Errorf("unexpected second busy window: %s", busy[1])
	}
}

func TestPartitionMergeIgnoresInputOrder(t *testing.T) {
	window := win(0, 12*60)
	targets := []*Target{
		admittedAt("late", 300, 360),
		admittedAt("early", 60, 120),
	}

	_, busy := Partition(targets, window, DefaultPartitionOpts())
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy windows, got %d", len(busy))
	}
	if !busy[0].Start.Before(busy[1].Start) {
		t.Error("busy windows not chronologically ordered")
	}
}

func TestPartitionFreeWindowsRespectGuard(t *testing.T) {
	window := win(0, 12*60)
	targets := []*Target{admittedAt("a", 5*60, 6*60)}

	free, _ := Partition(targets, window, DefaultPartitionOpts())
	if len(free) != 2 {
		t.Fatalf("expected free windows on both sides, got %d: %v", len(free), free)
	}

	guardStart := base.Add(5 * time.Hour).Add(-DefaultPartitionOpts().FreeGuard)
	guardStop := base.Add(6 * time.Hour).Add(DefaultPartitionOpts().FreeGuard)
	if free[0].Stop.After(guardStart) {
		t.Errorf("first free window %s runs into the guard starting %v", free[0], guardStart)
	}
	if free[1].Start.Before(guardStop) {
		t.Errorf("second free window %s starts inside the guard ending %v", free[1], guardStop)
	}
}

func TestPartitionNoTargets(t *testing.T) {
	window := win(0, 4*60)
	free, busy := Partition(nil, window, DefaultPartitionOpts())
	if len(busy) != 0 {
		t.Errorf("expected no busy windows, got %v", busy)
	}
	if len(free) != 1 {
		t.Fatalf("expected one free window spanning the whole window, got %v", free)
	}
	if !free[0].Start.Equal(window.Start) {
		t.Errorf("free window starts at %v, want %v", free[0].Start, window.Start)
	}
}

func TestPartitionWindowsDoNotOverlap(t *testing.T) {
	window := win(0, 18*60)
	targets := []*Target{
		admittedAt("a", 120, 180),
		admittedAt("b", 400, 520),
		admittedAt("c", 560, 620),
		admittedAt("d", 900, 960),
	}

	free, busy := Partition(targets, window, DefaultPartitionOpts())
	for _, set := range [][]Window{free, busy} {
		for i := 0; i < len(set); i++ {
			if !set[i].Valid() {
				t.Errorf("window %s has non-positive length", set[i])
			}
			if i > 0 && set[i].Start.Before(set[i-1].Stop) {
				t.Errorf("windows %s and %s overlap", set[i-1], set[i])
			}
		}
	}
	for _, f := range free {
		for _, b := range busy {
			if f.Start.Before(b.Stop) && f.Stop.After(b.Start) {
				t.Errorf("free window %s overlaps busy window %s", f, b)
			}
		}
	}
}

func TestPartitionIdempotent(t *testing.T) {
	window := win(0, 12*60)
	targets := []*Target{
		admittedAt("a", 90, 150),
		admittedAt("b", 420, 540),
	}

	free1, busy1 := Partition(targets, window, DefaultPartitionOpts())
	free2, busy2 := Partition(targets, window, DefaultPartitionOpts())

	if len(free1) != len(free2) || len(busy1) != len(busy2) {
		t.Fatal("re-partitioning produced different window counts")
	}
	for i := range free1 {
		if !free1[i].Start.Equal(free2[i].Start) || !free1[i].Stop.Equal(free2[i].Stop) {
			t.Errorf("free window %d differs: %s vs %s", i, free1[i], free2[i])
		}
	}
	for i := range busy1 {
		if !busy1[i].Start.Equal(busy2[i].Start) || !busy1[i].Stop.Equal(busy2[i].Stop) {
			t.Errorf("busy window %d differs: %s vs %s", i, busy1[i], busy2[i])
		}
	}
}
