package capacity

import (
	"math"
	"testing"
	"time"
)

func TestParseAvailGiB(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int64
		ok     bool
	}{
		{
			name: "typical df output",
			output: "Filesystem     1G-blocks  Used Available Use% Mounted on\n" +
				"/dev/md0          54900G 12000     42900G  22% /LWA_STORAGE\n",
			want: 42900,
			ok:   true,
		},
		{
			name: "wrapped device name",
			output: "Filesystem     1G-blocks  Used Available Use% Mounted on\n" +
				"/dev/mapper/vg0-data\n" +
				"                  54900G 12000     42900G  22% /LWA_STORAGE\n",
			want: 42900,
			ok:   true,
		},
		{
			name:   "missing columns",
			output: "Filesystem\n/dev/md0 54900G\n",
			ok:     false,
		},
		{
			name:   "non-numeric available",
			output: "Filesystem 1G-blocks Used Available Use% Mounted on\n/dev/md0 54900G 12000 lots 22% /d\n",
			ok:     false,
		},
		{
			name:   "empty",
			output: "",
			ok:     false,
		},
		{
			name:   "negative",
			output: "/dev/md0 10G 20G -10G 200% /d\n",
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAvailGiB(tt.output)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("avail = %d GiB, want %d", got, tt.want)
			}
		})
	}
}

func TestRecordingSeconds(t *testing.T) {
	const gib = 42900 // ~41.9 TiB free

	got := RecordingSeconds(gib, 0.8, 2.0)
	bytes := float64(gib) * 1024 * 1024 * 1024
	want := time.Duration(bytes * 0.8 / RecordingRate * float64(time.Second))
	if got != want {
		t.Errorf("RecordingSeconds = %v, want %v", got, want)
	}
}

func TestRecordingSecondsHeadroomFloor(t *testing.T) {
	// With 2.5 TiB free and a 2 TiB floor, only half a TiB is usable even
	// though the buffer factor would allow 2 TiB.
	gib := int64(2.5 * 1024)
	got := RecordingSeconds(gib, 0.8, 2.0)

	usable := 0.5 * 1024 * 1024 * 1024 * 1024
	want := time.Duration(usable / RecordingRate * float64(time.Second))
	if d := got - want; d < -time.Second || d > time.Second {
		t.Errorf("RecordingSeconds = %v, want about %v", got, want)
	}
}

func TestRecordingSecondsBelowFloor(t *testing.T) {
	if got := RecordingSeconds(1024, 0.8, 2.0); got != 0 {
		t.Errorf("expected zero seconds below the headroom floor, got %v", got)
	}
	if got := RecordingSeconds(0, 0.8, 0); got != 0 {
		t.Errorf("expected zero seconds on an empty volume, got %v", got)
	}
}

func TestRecordingRateMagnitude(t *testing.T) {
	// Two beams, two tunings, two polarizations of 19.6 MS/s frames: a bit
	// under 160 MB/s.
	if RecordingRate < 150e6 || RecordingRate > 165e6 {
		t.Fatalf("RecordingRate = %v B/s, outside the expected range", float64(RecordingRate))
	}
	if math.Abs(RecordingRate-19.6e6/4096*4128*8) > 1 {
		t.Fatalf("RecordingRate = %v, inconsistent with its frame layout", float64(RecordingRate))
	}
}
