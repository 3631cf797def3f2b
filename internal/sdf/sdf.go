/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sdf renders session definition files for admitted observations
// and hands finished batches to the facility scheduling daemon.
package sdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/pulsarsched/internal/ephemeris"
	"github.com/friendsincode/pulsarsched/internal/schedule"
)

// Tuning center frequencies (Hz) for the two beams of a pair.
var tunings = [2][2]float64{
	{35.1e6, 49.8e6},
	{64.5e6, 79.2e6},
}

const drxFilter = 7

// Renderer produces one SDF per admitted target per beam.
type Renderer struct {
	ProjectCode  string
	ProjectTitle string
	ObserverName string
	ObserverID   int
	UCFUser      string
	Root         string // SDFs are written under Root/yymmdd/
	logger       zerolog.Logger
}

// NewRenderer constructs an SDF renderer.
func NewRenderer(projectCode, observerName string, observerID int, ucfUser, root string, logger zerolog.Logger) *Renderer {
	return &Renderer{
		ProjectCode:  projectCode,
		ProjectTitle: "Continued Regular Monitoring of Pulsars with LWA1",
		ObserverName: observerName,
		ObserverID:   observerID,
		UCFUser:      ucfUser,
		Root:         root,
		logger:       logger.With().Str("component", "sdf").Logger(),
	}
}

// Filename follows the facility convention:
// <PROJECT>_<yymmdd>_<HHMM>_<SSSS>_B<beam>.sdf
func (r *Renderer) Filename(start time.Time, sessionID, beam int) string {
	return fmt.Sprintf("%s_%s_%s_%04d_B%d.sdf",
		r.ProjectCode,
		start.UTC().Format("060102"),
		start.UTC().Format("1504"),
		sessionID, beam)
}

// Render builds the SDF text for one target on one beam of its pair.
// tuningIdx selects which half of the dual-beam frequency plan this beam
// records.
func (r *Renderer) Render(t *schedule.Target, beam, tuningIdx, sessionID int) (string, error) {
	if tuningIdx < 0 || tuningIdx > 1 {
		return "", fmt.Errorf("tuning index out of range: %d", tuningIdx)
	}
	ra, err := ephemeris.ParseRA(t.RA)
	if err != nil {
		return "", err
	}
	dec, err := ephemeris.ParseDec(t.Dec)
	if err != nil {
		return "", err
	}

	start := t.Final.Start.UTC()
	mjd := schedule.MJDDay(start)
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	mpm := int(start.Sub(midnight).Milliseconds())
	durMS := int(t.Final.Duration().Milliseconds())

	var b strings.Builder
	fmt.Fprintf(&b, "PI_ID            %d\n", r.ObserverID)
	fmt.Fprintf(&b, "PI_NAME          %s\n", r.ObserverName)
	fmt.Fprintf(&b, "PROJECT_ID       %s\n", r.ProjectCode)
	fmt.Fprintf(&b, "PROJECT_TITLE    %s\n", r.ProjectTitle)
	fmt.Fprintf(&b, "SESSION_ID       %d\n", sessionID)
	fmt.Fprintf(&b, "SESSION_TITLE    %s, beam %d\n", t.Name, beam)
	fmt.Fprintf(&b, "SESSION_DRX_BEAM %d\n", beam)
	fmt.Fprintf(&b, "SESSION_DATA_RETURN_METHOD UCF\n")
	fmt.Fprintf(&b, "SESSION_UCF_USERNAME %s/%s/%s\n", r.UCFUser, r.ProjectCode, t.Name)
	fmt.Fprintf(&b, "OBS_ID           1\n")
	fmt.Fprintf(&b, "OBS_TITLE        %s\n", t.Name)
	fmt.Fprintf(&b, "OBS_TARGET       %s\n", t.Name)
	fmt.Fprintf(&b, "OBS_START_MJD    %d\n", mjd)
	fmt.Fprintf(&b, "OBS_START_MPM    %d\n", mpm)
	fmt.Fprintf(&b, "OBS_DUR          %d\n", durMS)
	fmt.Fprintf(&b, "OBS_MODE         TRK_RADEC\n")
	fmt.Fprintf(&b, "OBS_RA           %.9f\n", ra/15) // hours
	fmt.Fprintf(&b, "OBS_DEC          %+.9f\n", dec)
	fmt.Fprintf(&b, "OBS_FREQ1        %.1f\n", tunings[tuningIdx][0])
	fmt.Fprintf(&b, "OBS_FREQ2        %.1f\n", tunings[tuningIdx][1])
	fmt.Fprintf(&b, "OBS_BW           %d\n", drxFilter)
	return b.String(), nil
}

// WriteAll renders SDFs for every admitted target, two per target (one per
// assigned beam), into the dated directory for the window start. Session IDs
// are consumed sequentially starting at firstSessionID; the next unused ID
// is returned with the written filenames.
func (r *Renderer) WriteAll(targets []*schedule.Target, windowStart time.Time, firstSessionID int) ([]string, int, error) {
	dir := filepath.Join(r.Root, windowStart.UTC().Format("060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, firstSessionID, fmt.Errorf("create SDF directory: %w", err)
	}

	sessionID := firstSessionID
	var files []string
	for _, t := range targets {
		for idx, beam := range t.Beams {
			body, err := r.Render(t, beam, idx, sessionID)
			if err != nil {
				return files, sessionID, fmt.Errorf("render %s beam %d: %w", t.Name, beam, err)
			}
			name := filepath.Join(dir, r.Filename(t.Final.Start, sessionID, beam))
			if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
				return files, sessionID, fmt.Errorf("write %s: %w", name, err)
			}
			files = append(files, name)
			sessionID++
		}
	}
	r.logger.Info().Int("files", len(files)).Str("dir", dir).Msg("SDFs rendered")
	return files, sessionID, nil
}
