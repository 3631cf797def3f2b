/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalog manages the persistent pulsar target list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/pulsarsched/internal/ephemeris"
	"github.com/friendsincode/pulsarsched/internal/models"
	"github.com/friendsincode/pulsarsched/internal/schedule"
)

// BeamWidthDeg is the beam width used for opportunistic coverage checks.
const BeamWidthDeg = 1.5

// ErrDuplicateName rejects a second catalog entry with an existing name.
var ErrDuplicateName = errors.New("target name already in catalog")

// ErrNotFound reports a missing catalog entry.
var ErrNotFound = errors.New("target not found in catalog")

// Service is the catalog CRUD layer.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a catalog service.
func New(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Add inserts a new target. The position strings are validated before the
// row is written; duplicate names are rejected.
func (s *Service) Add(ctx context.Context, t *models.Target) error {
	if _, err := ephemeris.ParseRA(t.RA); err != nil {
		return err
	}
	if _, err := ephemeris.ParseDec(t.Dec); err != nil {
		return err
	}
	if t.Duration <= 0 {
		return fmt.Errorf("target %s: duration must be positive", t.Name)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Target{}).Where("name = ?", t.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateName, t.Name)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return err
	}
	s.logger.Info().Str("target", t.Name).Msg("target added")
	return nil
}

// Remove deletes a target by name.
func (s *Service) Remove(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Target{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.logger.Info().Str("target", name).Msg("target removed")
	return nil
}

// List returns all targets ordered by right ascension.
func (s *Service) List(ctx context.Context) ([]models.Target, error) {
	var targets []models.Target
	if err := s.db.WithContext(ctx).Order("ra").Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

// Get fetches one target by name.
func (s *Service) Get(ctx context.Context, name string) (*models.Target, error) {
	var t models.Target
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResetLast sets a target's last-observed MJD, making it cadence-due again.
func (s *Service) ResetLast(ctx context.Context, name string, mjd int) error {
	result := s.db.WithContext(ctx).Model(&models.Target{}).Where("name = ?", name).Update("last_mjd", mjd)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// ResetAll sets every target's last-observed MJD.
func (s *Service) ResetAll(ctx context.Context, mjd int) error {
	return s.db.WithContext(ctx).Model(&models.Target{}).Where("1 = 1").Update("last_mjd", mjd).Error
}

// MarkObserved records that targets were observed at the given MJDs, and
// propagates each observation to any opportunistic target (cadence <= 0)
// inside the same beam.
func (s *Service) MarkObserved(ctx context.Context, observed []*schedule.Target, startMJD map[string]int) error {
	all, err := s.List(ctx)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, obs := range observed {
			mjd := startMJD[obs.Name]
			if err := tx.Model(&models.Target{}).Where("name = ?", obs.Name).Update("last_mjd", mjd).Error; err != nil {
				return err
			}
			for i := range all {
				other := &all[i]
				if other.Cadence > 0 || other.Name == obs.Name {
					continue
				}
				covered, err := ephemeris.WithinBeam(obs, &schedule.Target{
					Name: other.Name, RA: other.RA, Dec: other.Dec,
				}, BeamWidthDeg)
				if err != nil {
					return err
				}
				if !covered {
					continue
				}
				s.logger.Info().
					Str("target", obs.Name).
					Str("covers", other.Name).
					Msg("observation also covers opportunistic target")
				if err := tx.Model(&models.Target{}).Where("name = ?", other.Name).Update("last_mjd", mjd).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Skipped is one overdue target in a skip report.
type Skipped struct {
	Target   models.Target
	DaysLate int
	Cycles   int
}

// ListSkipped reports targets that have gone more than 1.9 cadence periods
// without an observation, most overdue (in cadence cycles) first.
func (s *Service) ListSkipped(ctx context.Context, nowMJD int) ([]Skipped, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var missed []Skipped
	for _, t := range all {
		if t.Cadence <= 0 {
			continue
		}
		late := nowMJD - t.LastMJD
		if float64(late) > 1.9*float64(t.Cadence) {
			missed = append(missed, Skipped{
				Target:   t,
				DaysLate: late,
				Cycles:   late / t.Cadence,
			})
		}
	}
	sort.SliceStable(missed, func(i, j int) bool {
		ri := float64(missed[i].DaysLate) / float64(missed[i].Target.Cadence)
		rj := float64(missed[j].DaysLate) / float64(missed[j].Target.Cadence)
		return ri > rj
	})
	return missed, nil
}

// ImportText loads the legacy whitespace-separated catalog format:
// name, RA, Dec, duration (hours), cadence (days), last MJD. Comment lines
// start with '#'. Existing entries with the same name are skipped.
func (s *Service) ImportText(ctx context.Context, data string) (int, error) {
	imported := 0
	for lineNo, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 6 {
			return imported, fmt.Errorf("line %d: expected 6 fields, got %d", lineNo+1, len(fields))
		}
		hours, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return imported, fmt.Errorf("line %d: bad duration: %w", lineNo+1, err)
		}
		cadence, err := strconv.Atoi(fields[4])
		if err != nil {
			return imported, fmt.Errorf("line %d: bad cadence: %w", lineNo+1, err)
		}
		lastMJD, err := strconv.Atoi(fields[5])
		if err != nil {
			return imported, fmt.Errorf("line %d: bad MJD: %w", lineNo+1, err)
		}

		t := &models.Target{
			Name:     fields[0],
			RA:       fields[1],
			Dec:      fields[2],
			Duration: hours * 3600,
			Cadence:  cadence,
			LastMJD:  lastMJD,
		}
		err = s.Add(ctx, t)
		if errors.Is(err, ErrDuplicateName) {
			s.logger.Warn().Str("target", t.Name).Msg("already in catalog, skipping")
			continue
		}
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		imported++
	}
	return imported, nil
}

// ToSchedule converts catalog rows to the scheduler's working type.
func ToSchedule(targets []models.Target) []*schedule.Target {
	out := make([]*schedule.Target, 0, len(targets))
	for _, t := range targets {
		out = append(out, &schedule.Target{
			ID:       t.ID,
			Name:     t.Name,
			RA:       t.RA,
			Dec:      t.Dec,
			Duration: secondsToDuration(t.Duration),
			Cadence:  t.Cadence,
			LastMJD:  t.LastMJD,
		})
	}
	return out
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
