/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pulsarsched/internal/catalog"
	"github.com/friendsincode/pulsarsched/internal/db"
	"github.com/friendsincode/pulsarsched/internal/models"
)

var (
	addRA       string
	addDec      string
	addDuration float64
	addCadence  int
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage the pulsar catalog",
}

var targetAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a pulsar to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetAdd,
}

var targetRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a pulsar from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetRemove,
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog ordered by right ascension",
	Args:  cobra.NoArgs,
	RunE:  runTargetList,
}

func init() {
	targetAddCmd.Flags().StringVarP(&addRA, "ra", "r", "", "Right ascension [HH:MM:SS.SS, J2000]")
	targetAddCmd.Flags().StringVarP(&addDec, "dec", "d", "", "Declination [sDD:MM:SS.S, J2000]")
	targetAddCmd.Flags().Float64VarP(&addDuration, "duration", "l", 0, "Observation duration in hours")
	targetAddCmd.Flags().IntVarP(&addCadence, "cadence", "c", 0, "Observing cadence in days (<= 0 for opportunistic)")
	targetAddCmd.MarkFlagRequired("ra")
	targetAddCmd.MarkFlagRequired("dec")
	targetAddCmd.MarkFlagRequired("duration")

	targetCmd.AddCommand(targetAddCmd)
	targetCmd.AddCommand(targetRemoveCmd)
	targetCmd.AddCommand(targetListCmd)
	rootCmd.AddCommand(targetCmd)
}

func runTargetAdd(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	t := &models.Target{
		Name:     args[0],
		RA:       addRA,
		Dec:      addDec,
		Duration: addDuration * 3600,
		Cadence:  addCadence,
		LastMJD:  0,
	}
	if err := catalog.New(conn, logger).Add(cmd.Context(), t); err != nil {
		return err
	}

	fmt.Printf("Added %s (%s, %s) for %.3f hr every %d days\n", t.Name, t.RA, t.Dec, addDuration, t.Cadence)
	fmt.Printf("NOTE: remember to create the return directory %s/%s/%s on the UCF\n", cfg.DataPath, cfg.ProjectCode, t.Name)
	return nil
}

func runTargetRemove(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	return catalog.New(conn, logger).Remove(cmd.Context(), args[0])
}

func runTargetList(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	targets, err := catalog.New(conn, logger).List(cmd.Context())
	if err != nil {
		return err
	}
	for _, t := range targets {
		fmt.Printf("%-10s  %-11s  %-11s  %4.1f  %3d  %6d\n",
			t.Name, t.RA, t.Dec, t.Duration/3600, t.Cadence, t.LastMJD)
	}
	return nil
}
