/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/pulsarsched/internal/catalog"
	"github.com/friendsincode/pulsarsched/internal/db"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a legacy text catalog",
	Long: `Import targets from the legacy whitespace-separated catalog format:

  # Name        RA           Dec          Duration  Cadence  LastMJD
  B0329+54      03:32:59.37  +54:34:43.6  1.0       10       60210

Duration is in hours, cadence in days. Entries already in the catalog are
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}

	conn, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(conn)

	imported, err := catalog.New(conn, logger).ImportText(cmd.Context(), string(data))
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d targets\n", imported)
	return nil
}
