/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"github.com/spf13/cobra"

	"github.com/friendsincode/pulsarsched/internal/atq"
	"github.com/friendsincode/pulsarsched/internal/capacity"
	"github.com/friendsincode/pulsarsched/internal/catalog"
	"github.com/friendsincode/pulsarsched/internal/db"
	"github.com/friendsincode/pulsarsched/internal/ephemeris"
	"github.com/friendsincode/pulsarsched/internal/schedule"
	"github.com/friendsincode/pulsarsched/internal/sdf"
	"github.com/friendsincode/pulsarsched/internal/session"
)

var scheduleDryRun bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule START_DATE START_TIME STOP_DATE STOP_TIME",
	Short: "Schedule observations into an idle window",
	Long: `Schedule pulsar observations into an idle window of the telescope.

Dates are UTC in YYYY/MM/DD format, times in HH:MM:SS. Example:

  pulsarsched schedule 2026/09/01 02:00:00 2026/09/01 14:00:00

With --dry-run the full plan is computed and reported but no SDFs are
written, nothing is submitted, and the catalog is left untouched.`,
	Args: cobra.ExactArgs(4),
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVarP(&scheduleDryRun, "dry-run", "n", false, "Compute and report the plan without executing it")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	start, stop, err := parseWindowArgs(args)
	if err != nil {
		return err
	}

	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	cat := catalog.New(conn, logger)
	geo := ephemeris.NewObserver(cfg.SiteLongitude, cfg.SiteLatitude)
	oracle := capacity.NewRemoteDisk(cfg.DataHost, cfg.DataUser, cfg.DataKeyPath,
		cfg.DataPath+"/"+cfg.UCFUser, cfg.BufferFactor, cfg.MinFreeTB, logger)
	renderer := sdf.NewRenderer(cfg.ProjectCode, cfg.ObserverName, cfg.ObserverID, cfg.UCFUser, cfg.SDFRoot, logger)
	submitter := sdf.NewExecSubmitter(cfg.SubmitCommand, logger)
	queue := atq.New(cfg.AtBin, logger)

	runner, err := session.New(cfg, conn, cat, geo, oracle, renderer, submitter, queue, logger)
	if err != nil {
		return err
	}

	window := schedule.Window{Start: start, Stop: stop}
	_, err = runner.Run(cmd.Context(), window, session.Options{DryRun: scheduleDryRun})
	return err
}
