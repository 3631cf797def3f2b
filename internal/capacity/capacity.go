/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package capacity answers how many seconds of dual-beam recording the
// remote data aggregator can still absorb.
package capacity

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// RecordingRate is the byte rate of one observation: two polarizations, two
// tunings, and two beams.
const RecordingRate = 19.6e6 / 4096 * 4128 * 2 * 2 * 2 // B/s

// Oracle reports remaining recording capacity, already adjusted for the
// configured safety margins.
type Oracle interface {
	AvailableSeconds(ctx context.Context) (time.Duration, error)
}

// RemoteDisk queries free space on the data host over SSH.
type RemoteDisk struct {
	Host         string // host:port
	User         string
	KeyPath      string
	Path         string // remote directory passed to df
	BufferFactor float64
	MinFreeTB    float64
	logger       zerolog.Logger
}

// NewRemoteDisk constructs the disk oracle.
func NewRemoteDisk(host, user, keyPath, path string, bufferFactor, minFreeTB float64, logger zerolog.Logger) *RemoteDisk {
	return &RemoteDisk{
		Host:         host,
		User:         user,
		KeyPath:      keyPath,
		Path:         path,
		BufferFactor: bufferFactor,
		MinFreeTB:    minFreeTB,
		logger:       logger.With().Str("component", "capacity").Logger(),
	}
}

// AvailableSeconds runs df on the data host and converts the free space to
// recording seconds. Unparseable df output counts as zero free space, which
// simply stops admission, rather than failing the run.
func (r *RemoteDisk) AvailableSeconds(ctx context.Context) (time.Duration, error) {
	output, err := r.run(ctx, fmt.Sprintf("df -BG %s", r.Path))
	if err != nil {
		return 0, fmt.Errorf("query data host %s: %w", r.Host, err)
	}

	gib, ok := ParseAvailGiB(output)
	if !ok {
		r.logger.Warn().Str("host", r.Host).Msg("unparseable df output, assuming no free space")
		return 0, nil
	}

	return RecordingSeconds(gib, r.BufferFactor, r.MinFreeTB), nil
}

func (r *RemoteDisk) run(ctx context.Context, command string) (string, error) {
	key, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return "", fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("parse ssh key: %w", err)
	}

	clientCfg := &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}

	client, err := ssh.Dial("tcp", r.Host, clientCfg)
	if err != nil {
		return "", fmt.Errorf("ssh dial: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Signal(ssh.SIGKILL)
		case <-done:
		}
	}()
	out, err := session.Output(command)
	close(done)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", command, err)
	}
	return string(out), nil
}

// ParseAvailGiB extracts the available column, in GiB, from `df -BG` output.
// A long device name wraps onto its own line, leaving the continuation line
// without the filesystem column.
func ParseAvailGiB(output string) (int64, bool) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) == 0 {
		return 0, false
	}
	fields := strings.Fields(lines[len(lines)-1])
	var col string
	switch {
	case len(fields) >= 6:
		col = fields[3]
	case len(fields) == 5:
		col = fields[2]
	default:
		return 0, false
	}
	avail := strings.TrimSuffix(col, "G")
	gib, err := strconv.ParseInt(avail, 10, 64)
	if err != nil || gib < 0 {
		return 0, false
	}
	return gib, true
}

// RecordingSeconds converts free GiB to seconds of recording, holding back
// the buffer factor and keeping minFreeTB of headroom on the volume.
func RecordingSeconds(gib int64, bufferFactor, minFreeTB float64) time.Duration {
	bytes := float64(gib) * 1024 * 1024 * 1024
	usable := bytes * bufferFactor
	if floor := bytes - minFreeTB*1024*1024*1024*1024; floor < usable {
		usable = floor
	}
	if usable < 0 {
		usable = 0
	}
	return time.Duration(usable / RecordingRate * float64(time.Second))
}
