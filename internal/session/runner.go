/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package session drives one end-to-end scheduling run.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/pulsarsched/internal/atq"
	"github.com/friendsincode/pulsarsched/internal/capacity"
	"github.com/friendsincode/pulsarsched/internal/catalog"
	"github.com/friendsincode/pulsarsched/internal/config"
	"github.com/friendsincode/pulsarsched/internal/models"
	"github.com/friendsincode/pulsarsched/internal/schedule"
	"github.com/friendsincode/pulsarsched/internal/sdf"
)

// Runner wires the scheduling core to its collaborators for one run.
type Runner struct {
	cfg       *config.Config
	db        *gorm.DB
	catalog   *catalog.Service
	geo       schedule.Geometry
	oracle    capacity.Oracle
	renderer  *sdf.Renderer
	submitter sdf.Submitter
	queue     atq.JobQueue
	kinds     []schedule.Kind
	logger    zerolog.Logger
}

// New constructs a runner. The maintenance kind table comes from the
// configured YAML file when set, otherwise the built-in defaults.
func New(cfg *config.Config, db *gorm.DB, cat *catalog.Service, geo schedule.Geometry, oracle capacity.Oracle, renderer *sdf.Renderer, submitter sdf.Submitter, queue atq.JobQueue, logger zerolog.Logger) (*Runner, error) {
	kinds := schedule.DefaultKinds()
	if cfg.MaintenanceFile != "" {
		loaded, err := schedule.LoadKinds(cfg.MaintenanceFile)
		if err != nil {
			return nil, err
		}
		kinds = loaded
	}

	return &Runner{
		cfg:       cfg,
		db:        db,
		catalog:   cat,
		geo:       geo,
		oracle:    oracle,
		renderer:  renderer,
		submitter: submitter,
		queue:     queue,
		kinds:     kinds,
		logger:    logger.With().Str("component", "session").Logger(),
	}, nil
}

// Options control the side effects of a run.
type Options struct {
	DryRun bool
}

// Result is the outcome of a completed run.
type Result struct {
	Plan   *schedule.Plan
	Files  []string // rendered SDF paths
	JobIDs []int    // deferred-command queue IDs, aligned with Plan.Commands
}

// Run computes and, unless dry-running, executes one schedule for the
// requested window. A submission failure aborts the run before any catalog
// state advances.
func (r *Runner) Run(ctx context.Context, window schedule.Window, opts Options) (*Result, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("%w: %s >= %s", schedule.ErrInvalidWindow, window.Start, window.Stop)
	}

	r.logger.Info().
		Str("window", window.String()).
		Float64("hours", window.Duration().Hours()).
		Msg("scheduling run starting")

	budget, err := r.oracle.AvailableSeconds(ctx)
	if err != nil {
		return nil, fmt.Errorf("capacity oracle: %w", err)
	}
	r.logger.Info().Float64("hours", budget.Hours()).Msg("recording capacity available")

	// Hold back the initialization lead at the top of the window.
	nominalStart := window.Start
	adjusted := schedule.Window{Start: window.Start.Add(r.cfg.SDFLead), Stop: window.Stop}
	if !adjusted.Valid() {
		return nil, fmt.Errorf("%w: window shorter than the initialization lead", schedule.ErrInvalidWindow)
	}

	rows, err := r.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	targets := catalog.ToSchedule(rows)
	r.logger.Info().Int("targets", len(targets)).Msg("catalog loaded")

	padding := time.Duration(r.cfg.PaddingSeconds) * time.Second
	engine := schedule.NewEngine(r.geo, padding, r.logger)
	st, err := engine.Admit(targets, adjusted, budget)
	if err != nil {
		return nil, err
	}
	engine.AssignBeams(st, r.cfg.Beams)

	free, busy := schedule.Partition(st.Admitted, adjusted, schedule.PartitionOpts{
		BusyMerge: r.cfg.BusyMerge,
		FreeGrid:  r.cfg.FreeGrid,
		FreeGuard: r.cfg.FreeGuard,
		FreeJoin:  r.cfg.FreeJoin,
	})

	placement := schedule.NewPlacement(r.kinds, r.logger)
	cmds := placement.Place(free, busy, adjusted, nominalStart, r.cfg.CooldownLookback, st.Admitted)

	plan := &schedule.Plan{
		Window:    adjusted,
		Targets:   st.Admitted,
		Free:      free,
		Busy:      busy,
		Commands:  cmds,
		Budget:    budget,
		Remaining: st.Remaining,
	}
	r.report(plan)

	if opts.DryRun {
		r.logger.Info().Msg("dry run, stopping before submission")
		return &Result{Plan: plan}, nil
	}

	sessionID, err := r.nextSessionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session counter: %w", err)
	}

	files, nextID, err := r.renderer.WriteAll(st.Admitted, adjusted.Start, sessionID)
	if err != nil {
		return nil, err
	}

	if err := r.submitter.Submit(ctx, files); err != nil {
		// All-or-nothing: no catalog update, no deferred commands.
		return nil, fmt.Errorf("SDF submission failed, aborting run: %w", err)
	}

	if err := r.saveSessionID(ctx, nextID); err != nil {
		return nil, fmt.Errorf("save session counter: %w", err)
	}

	jobIDs := make([]int, 0, len(cmds))
	for _, c := range cmds {
		id, err := r.queue.ScheduleAt(ctx, c.At, c.Path)
		if err != nil {
			r.logger.Warn().Err(err).Str("command", c.Path).Msg("deferred command not queued")
			id = -1
		}
		jobIDs = append(jobIDs, id)
	}

	startMJD := make(map[string]int, len(st.Admitted))
	for _, t := range st.Admitted {
		startMJD[t.Name] = schedule.MJDDay(t.Final.Start.Add(-padding / 2))
	}
	if err := r.catalog.MarkObserved(ctx, st.Admitted, startMJD); err != nil {
		return nil, fmt.Errorf("update catalog: %w", err)
	}

	if err := r.appendRunLog(window, plan); err != nil {
		r.logger.Warn().Err(err).Msg("run log not written")
	}

	return &Result{Plan: plan, Files: files, JobIDs: jobIDs}, nil
}

func (r *Runner) report(plan *schedule.Plan) {
	r.logger.Info().
		Int("targets", len(plan.Targets)).
		Float64("hours", plan.Allocated().Hours()).
		Msg("targets selected for this window")
	for _, t := range plan.Targets {
		r.logger.Info().
			Str("target", t.Name).
			Float64("hours", t.Duration.Hours()).
			Ints("beams", []int{t.Beams[0], t.Beams[1]}).
			Msg("observation")
	}
	for _, w := range plan.Free {
		r.logger.Info().Str("window", w.String()).Dur("length", w.Duration()).Msg("free")
	}
	for _, w := range plan.Busy {
		r.logger.Info().Str("window", w.String()).Dur("length", w.Duration()).Msg("busy")
	}
}

func (r *Runner) nextSessionID(ctx context.Context) (int, error) {
	var state models.SchedulerState
	err := r.db.WithContext(ctx).First(&state, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return state.NextSessionID, nil
}

func (r *Runner) saveSessionID(ctx context.Context, next int) error {
	state := models.SchedulerState{ID: 1, NextSessionID: next}
	return r.db.WithContext(ctx).Save(&state).Error
}

// appendRunLog writes the operators' plain-text timeline, one run per block.
func (r *Runner) appendRunLog(window schedule.Window, plan *schedule.Plan) error {
	fh, err := os.OpenFile(r.cfg.RunLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()

	fmt.Fprintf(fh, "Completed Scheduling for UTC %s to %s\n",
		window.Start.UTC().Format("2006/01/02 15:04:05"),
		window.Stop.UTC().Format("2006/01/02 15:04:05"))
	fmt.Fprintf(fh, "  Timeline:\n")
	for _, entry := range plan.Timeline() {
		fmt.Fprintf(fh, "    %s - %s\n", entry.At.UTC().Format("2006/01/02 15:04:05"), entry.Info)
	}
	return nil
}
