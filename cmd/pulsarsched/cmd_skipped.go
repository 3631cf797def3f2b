/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pulsarsched/internal/catalog"
	"github.com/friendsincode/pulsarsched/internal/db"
	"github.com/friendsincode/pulsarsched/internal/schedule"
)

var skippedCmd = &cobra.Command{
	Use:   "skipped",
	Short: "List targets overdue by more than one cadence period",
	Args:  cobra.NoArgs,
	RunE:  runSkipped,
}

func init() {
	rootCmd.AddCommand(skippedCmd)
}

func runSkipped(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	missed, err := catalog.New(conn, logger).ListSkipped(cmd.Context(), schedule.MJDDay(time.Now().UTC()))
	if err != nil {
		return err
	}
	for _, m := range missed {
		fmt.Printf("%s was last observed %d days (%d cycles) ago on %d\n",
			m.Target.Name, m.DaysLate, m.Cycles, m.Target.LastMJD)
	}
	return nil
}
