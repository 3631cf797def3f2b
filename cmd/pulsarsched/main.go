package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/friendsincode/pulsarsched/internal/config"
	"github.com/friendsincode/pulsarsched/internal/db"
	"github.com/friendsincode/pulsarsched/internal/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pulsarsched",
	Short: "Pulsarsched - pulsar monitoring scheduler",
	Long:  "Pulsarsched fills idle windows of a multi-beam radio telescope with cadenced pulsar observations and station maintenance tasks.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// openDatabase connects and migrates the catalog database.
func openDatabase() (*gorm.DB, error) {
	conn, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return conn, nil
}

// parseWindowArgs turns the four positional date/time arguments into UTC
// start and stop instants.
func parseWindowArgs(args []string) (time.Time, time.Time, error) {
	const layout = "2006/01/02 15:04:05"
	start, err := time.ParseInLocation(layout, args[0]+" "+args[1], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start: %w", err)
	}
	stop, err := time.ParseInLocation(layout, args[2]+" "+args[3], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse stop: %w", err)
	}
	return start, stop, nil
}
