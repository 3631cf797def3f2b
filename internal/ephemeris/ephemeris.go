/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ephemeris computes transit timing for fixed sky positions. It is
// the geometry adapter behind the admission engine: given a target and a
// scheduling window it answers when, if ever, the target crosses the local
// meridian and what padded interval an observation centered on that transit
// would occupy.
package ephemeris

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/pulsarsched/internal/schedule"
)

const (
	// Sidereal rate: degrees of Earth rotation per solar day.
	siderealRate = 360.98564736629

	j2000 = 2451545.0
)

// Observer is a fixed site on Earth. Longitude is east-positive degrees.
type Observer struct {
	Longitude float64
	Latitude  float64
}

// NewObserver returns an observer for the given site coordinates (degrees).
func NewObserver(longitude, latitude float64) *Observer {
	return &Observer{Longitude: longitude, Latitude: latitude}
}

// FeasibleInterval implements schedule.Geometry. The interval is centered on
// the first transit after the window start, spans the target's duration plus
// the session padding, and is rounded to whole seconds. Targets that never
// rise above the horizon yield schedule.ErrNeverVisible.
func (o *Observer) FeasibleInterval(t *schedule.Target, w schedule.Window, padding time.Duration) (schedule.Window, error) {
	ra, err := ParseRA(t.RA)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("target %s: %w", t.Name, err)
	}
	dec, err := ParseDec(t.Dec)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("target %s: %w", t.Name, err)
	}

	// Altitude at upper transit is 90 - |lat - dec| degrees.
	if math.Abs(o.Latitude-dec) >= 90 {
		return schedule.Window{}, schedule.ErrNeverVisible
	}

	transit := o.NextTransit(ra, w.Start).Round(time.Second)
	half := t.Duration/2 + padding/2
	return schedule.Window{Start: transit.Add(-half), Stop: transit.Add(half)}, nil
}

// NextTransit returns the first meridian crossing of the given right
// ascension (degrees) after the given instant.
func (o *Observer) NextTransit(raDeg float64, after time.Time) time.Time {
	lst := o.LocalSiderealTime(after)
	delta := math.Mod(raDeg-lst, 360)
	if delta < 0 {
		delta += 360
	}
	days := delta / siderealRate
	return after.Add(time.Duration(days * 24 * float64(time.Hour)))
}

// LocalSiderealTime returns the local apparent sidereal time in degrees.
func (o *Observer) LocalSiderealTime(t time.Time) float64 {
	d := JulianDate(t) - j2000
	gmst := math.Mod(280.46061837+siderealRate*d, 360)
	lst := math.Mod(gmst+o.Longitude, 360)
	if lst < 0 {
		lst += 360
	}
	return lst
}

// JulianDate converts a time to a Julian date.
func JulianDate(t time.Time) float64 {
	return float64(MJD(t)) + 2400000.5
}

// MJD returns the fractional Modified Julian Day of t.
func MJD(t time.Time) float64 {
	epoch := time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)
	return t.UTC().Sub(epoch).Seconds() / 86400.0
}

// Separation returns the angular separation in degrees between two
// positions given as (raDeg, decDeg) pairs. The haversine form stays
// numerically stable at the small angles beam coverage checks compare.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	r1, d1 := ra1*math.Pi/180, dec1*math.Pi/180
	r2, d2 := ra2*math.Pi/180, dec2*math.Pi/180
	sinDec := math.Sin((d2 - d1) / 2)
	sinRA := math.Sin((r2 - r1) / 2)
	h := sinDec*sinDec + math.Cos(d1)*math.Cos(d2)*sinRA*sinRA
	if h > 1 {
		h = 1
	}
	return 2 * math.Asin(math.Sqrt(h)) * 180 / math.Pi
}

// WithinBeam reports whether two targets fall inside one beam of the given
// width (degrees).
func WithinBeam(a, b *schedule.Target, widthDeg float64) (bool, error) {
	ra1, err := ParseRA(a.RA)
	if err != nil {
		return false, fmt.Errorf("target %s: %w", a.Name, err)
	}
	dec1, err := ParseDec(a.Dec)
	if err != nil {
		return false, fmt.Errorf("target %s: %w", a.Name, err)
	}
	ra2, err := ParseRA(b.RA)
	if err != nil {
		return false, fmt.Errorf("target %s: %w", b.Name, err)
	}
	dec2, err := ParseDec(b.Dec)
	if err != nil {
		return false, fmt.Errorf("target %s: %w", b.Name, err)
	}
	return Separation(ra1, dec1, ra2, dec2) <= widthDeg, nil
}

// ParseRA parses "HH:MM:SS.SS" right ascension into degrees.
func ParseRA(s string) (float64, error) {
	hours, err := parseSexagesimal(s)
	if err != nil {
		return 0, fmt.Errorf("right ascension %q: %w", s, err)
	}
	if hours < 0 || hours >= 24 {
		return 0, fmt.Errorf("right ascension %q out of range", s)
	}
	return hours * 15, nil
}

// ParseDec parses "sDD:MM:SS.S" declination into degrees.
func ParseDec(s string) (float64, error) {
	deg, err := parseSexagesimal(s)
	if err != nil {
		return 0, fmt.Errorf("declination %q: %w", s, err)
	}
	if deg < -90 || deg > 90 {
		return 0, fmt.Errorf("declination %q out of range", s)
	}
	return deg, nil
}

func parseSexagesimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected three colon-separated fields")
	}
	whole, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad degrees/hours field: %w", err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad minutes field: %w", err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("bad seconds field: %w", err)
	}
	if minutes < 0 || minutes >= 60 || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("minutes/seconds out of range")
	}
	return sign * (float64(whole) + float64(minutes)/60 + seconds/3600), nil
}
