package models

import (
	"time"
)

// Target is a catalog pulsar with its observing policy.
//
// RA and Dec are stored in the catalog's sexagesimal form ("HH:MM:SS.SS" and
// "sDD:MM:SS.S", J2000) and are only interpreted by the ephemeris package.
type Target struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	Name     string `gorm:"uniqueIndex"`
	RA       string `gorm:"type:varchar(16)"`
	Dec      string `gorm:"type:varchar(16)"`
	Duration float64 // required observation length, seconds
	Cadence  int     // minimum days between observations; <= 0 means opportunistic
	LastMJD  int     // MJD of the most recent observation

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchedulerState holds the monotonically increasing session counter.
type SchedulerState struct {
	ID            int `gorm:"primaryKey"`
	NextSessionID int
	UpdatedAt     time.Time
}
