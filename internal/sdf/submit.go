/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sdf

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Submitter hands a batch of rendered SDFs to the facility scheduling
// daemon. A submission error is fatal to the whole run.
type Submitter interface {
	Submit(ctx context.Context, filenames []string) error
}

// ExecSubmitter invokes the facility submit command with the SDF paths as
// arguments.
type ExecSubmitter struct {
	Command string
	logger  zerolog.Logger
}

// NewExecSubmitter constructs a submitter around the configured command.
func NewExecSubmitter(command string, logger zerolog.Logger) *ExecSubmitter {
	return &ExecSubmitter{
		Command: command,
		logger:  logger.With().Str("component", "submit").Logger(),
	}
}

// Submit runs the submit command once; no retries.
func (s *ExecSubmitter) Submit(ctx context.Context, filenames []string) error {
	if len(filenames) == 0 {
		return nil
	}

	// The command may carry its own arguments.
	shellCmd := fmt.Sprintf("%s %s", s.Command, strings.Join(filenames, " "))
	cmd := exec.CommandContext(ctx, "sh", "-c", shellCmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		s.logger.Error().Err(err).Str("output", strings.TrimSpace(string(out))).Msg("SDF submission failed")
		return fmt.Errorf("submit %d SDFs: %w", len(filenames), err)
	}
	s.logger.Info().Int("files", len(filenames)).Msg("SDFs submitted for scheduling")
	return nil
}
