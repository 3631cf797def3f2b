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

var (
	resetAll bool
	resetMJD int
)

var resetCmd = &cobra.Command{
	Use:   "reset-last [NAME]",
	Short: "Reset a target's last-observed epoch",
	Long: `Reset the last-observed MJD of one target (or every target with --all),
making it cadence-due again. The default new epoch is 0; --mjd overrides it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Reset every target in the catalog")
	resetCmd.Flags().IntVar(&resetMJD, "mjd", 0, "New last-observed MJD")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if !resetAll && len(args) == 0 {
		return fmt.Errorf("either a target name or --all is required")
	}
	if resetMJD < 0 || resetMJD > schedule.MJDDay(time.Now().UTC()) {
		return fmt.Errorf("--mjd %d is not a past epoch", resetMJD)
	}

	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	cat := catalog.New(conn, logger)
	if resetAll {
		if err := cat.ResetAll(cmd.Context(), resetMJD); err != nil {
			return err
		}
		fmt.Printf("Reset every target to MJD %d\n", resetMJD)
		return nil
	}

	if err := cat.ResetLast(cmd.Context(), args[0], resetMJD); err != nil {
		return err
	}
	fmt.Printf("Reset %s to MJD %d\n", args[0], resetMJD)
	return nil
}
