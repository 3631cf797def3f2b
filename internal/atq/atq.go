/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package atq defers shell commands to a wall-clock time through the
// system job queue.
package atq

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// JobQueue schedules a command for later execution and returns its job ID.
type JobQueue interface {
	ScheduleAt(ctx context.Context, at time.Time, command string) (int, error)
}

// AtQueue shells out to at(1).
type AtQueue struct {
	Bin    string
	logger zerolog.Logger
}

// New constructs an AtQueue for the given binary.
func New(bin string, logger zerolog.Logger) *AtQueue {
	return &AtQueue{
		Bin:    bin,
		logger: logger.With().Str("component", "atq").Logger(),
	}
}

// at reports the assigned job on stderr as "job N at <date>".
var jobPattern = regexp.MustCompile(`job (\d+)`)

// ScheduleAt queues the command and parses the assigned job ID.
func (q *AtQueue) ScheduleAt(ctx context.Context, at time.Time, command string) (int, error) {
	stamp := at.UTC().Format("200601021504.05")
	cmd := exec.CommandContext(ctx, q.Bin, "-t", stamp)
	cmd.Stdin = strings.NewReader(command + "\n")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("queue %q at %s: %w", command, at, err)
	}

	match := jobPattern.FindStringSubmatch(string(out))
	if match == nil {
		q.logger.Warn().Str("output", strings.TrimSpace(string(out))).Msg("no job id in at output")
		return 0, nil
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, nil
	}
	q.logger.Debug().Int("job", id).Time("at", at).Str("command", command).Msg("command queued")
	return id, nil
}
