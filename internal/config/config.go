/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	DBBackend   DatabaseBackend
	DBDSN       string

	// Observer site (degrees, east-positive longitude)
	SiteLongitude float64
	SiteLatitude  float64

	// Project identity used in rendered session files
	ProjectCode  string
	ObserverName string
	ObserverID   int

	// Capacity oracle (remote data host)
	DataHost     string // host:port of the data aggregator
	DataUser     string // ssh user on the data host
	DataKeyPath  string // ssh private key path
	DataPath     string // remote path checked with df
	UCFUser      string // per-project directory under the recording root
	BufferFactor float64
	MinFreeTB    float64

	// Submission
	SDFRoot       string // directory tree where rendered SDFs are written
	SubmitCommand string // facility command that ingests a batch of SDFs
	AtBin         string // deferred command queue binary

	// Scheduling policy
	Beams            []int
	PaddingSeconds   int           // total per-session padding
	SDFLead          time.Duration // lead time reserved for the initialization pass
	BusyMerge        time.Duration
	FreeGrid         time.Duration
	FreeGuard        time.Duration
	FreeJoin         time.Duration
	CooldownLookback time.Duration
	MaintenanceFile  string // optional YAML override for the maintenance kind table

	RunLogPath string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("PSRSCHED_ENV", "development"),
		DBBackend:   DatabaseBackend(getEnv("PSRSCHED_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("PSRSCHED_DB_DSN", "pulsarsched.db"),

		// Defaults are the LWA1 site
		SiteLongitude: getEnvFloat("PSRSCHED_SITE_LONGITUDE", -107.628),
		SiteLatitude:  getEnvFloat("PSRSCHED_SITE_LATITUDE", 34.070),

		ProjectCode:  getEnv("PSRSCHED_PROJECT_CODE", "LK009"),
		ObserverName: getEnv("PSRSCHED_OBSERVER_NAME", "Pratik Kumar"),
		ObserverID:   getEnvInt("PSRSCHED_OBSERVER_ID", 82),

		DataHost:     getEnv("PSRSCHED_DATA_HOST", "lwaucf1:22"),
		DataUser:     getEnv("PSRSCHED_DATA_USER", "mcsdr"),
		DataKeyPath:  getEnv("PSRSCHED_DATA_KEY", ""),
		DataPath:     getEnv("PSRSCHED_DATA_PATH", "/data/network/recent_data"),
		UCFUser:      getEnv("PSRSCHED_UCF_USER", "pulsar"),
		BufferFactor: getEnvFloat("PSRSCHED_BUFFER_FACTOR", 0.8),
		MinFreeTB:    getEnvFloat("PSRSCHED_MIN_FREE_TB", 2.0),

		SDFRoot:       getEnv("PSRSCHED_SDF_ROOT", "/home/op1/MCS/tp"),
		SubmitCommand: getEnv("PSRSCHED_SUBMIT_COMMAND", "schedule_sdfs"),
		AtBin:         getEnv("PSRSCHED_AT_BIN", "at"),

		Beams:            getEnvInts("PSRSCHED_BEAMS", []int{2, 3, 4}),
		PaddingSeconds:   getEnvInt("PSRSCHED_PADDING_SECONDS", 10),
		SDFLead:          time.Duration(getEnvInt("PSRSCHED_SDF_LEAD_MINUTES", 25)) * time.Minute,
		BusyMerge:        time.Duration(getEnvInt("PSRSCHED_BUSY_MERGE_MINUTES", 45)) * time.Minute,
		FreeGrid:         time.Duration(getEnvInt("PSRSCHED_FREE_GRID_MINUTES", 2)) * time.Minute,
		FreeGuard:        time.Duration(getEnvInt("PSRSCHED_FREE_GUARD_MINUTES", 20)) * time.Minute,
		FreeJoin:         time.Duration(getEnvInt("PSRSCHED_FREE_JOIN_SECONDS", 120)) * time.Second,
		CooldownLookback: time.Duration(getEnvInt("PSRSCHED_COOLDOWN_LOOKBACK_HOURS", 12)) * time.Hour,
		MaintenanceFile:  getEnv("PSRSCHED_MAINTENANCE_FILE", ""),

		RunLogPath: getEnv("PSRSCHED_RUN_LOG", "runtime.log"),
	}

	switch cfg.DBBackend {
	case DatabasePostgres, DatabaseSQLite:
	default:
		return nil, fmt.Errorf("unknown database backend: %s", cfg.DBBackend)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("PSRSCHED_DB_DSN must be set")
	}
	if cfg.SiteLatitude < -90 || cfg.SiteLatitude > 90 {
		return nil, fmt.Errorf("PSRSCHED_SITE_LATITUDE out of range: %f", cfg.SiteLatitude)
	}
	if len(cfg.Beams) < 2 {
		return nil, fmt.Errorf("PSRSCHED_BEAMS must name at least two beams")
	}
	seen := map[int]bool{}
	for _, b := range cfg.Beams {
		if seen[b] {
			return nil, fmt.Errorf("PSRSCHED_BEAMS contains duplicate beam %d", b)
		}
		seen[b] = true
	}
	if cfg.BufferFactor <= 0 || cfg.BufferFactor > 1 {
		return nil, fmt.Errorf("PSRSCHED_BUFFER_FACTOR must be in (0, 1]: %f", cfg.BufferFactor)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvInts parses a comma separated list of integers, e.g. "2,3,4".
func getEnvInts(key string, def []int) []int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(val, ",") {
		parsed, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return def
		}
		out = append(out, parsed)
	}
	return out
}
