// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package executor runs commands and copies files on cluster hosts over
// scoped remote sessions. Nothing is retried: every command is issued at
// most once.
package executor

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/vmware/hstore-fabric/pkg/cluster"
)

// Result is the outcome of one remote command.
type Result struct {
	ExitStatus int
	Output     string
}

// Session is an open remote session on one host.
type Session interface {
	Host() cluster.RemoteHost
	// Run executes command and returns its combined output. A non-zero exit
	// is reported as *RemoteExecutionError.
	Run(ctx context.Context, command string) (*Result, error)
	// Upload copies a local file to remotePath on the session's host.
	Upload(ctx context.Context, localPath, remotePath string) error
	// Download copies remotePath on the session's host to a local file.
	Download(ctx context.Context, remotePath, localPath string) error
	Close() error
}

// Dialer opens sessions. Open failures are reported as *ConnectionError.
type Dialer interface {
	Open(ctx context.Context, host cluster.RemoteHost) (Session, error)
}

// WithSession opens a session on host, passes it to fn and closes it on
// every return path.
func WithSession(ctx context.Context, d Dialer, host cluster.RemoteHost, fn func(Session) error) (err error) {
	sess, err := d.Open(ctx, host)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close session to %s: %w", host.Name, cerr))
		}
	}()

	return fn(sess)
}

// Run executes command on host in its own session.
func Run(ctx context.Context, d Dialer, host cluster.RemoteHost, command string) (*Result, error) {
	var res *Result
	err := WithSession(ctx, d, host, func(s Session) error {
		var runErr error
		res, runErr = s.Run(ctx, command)
		return runErr
	})
	return res, err
}

// CopyToRemote uploads sourcePath from the local machine to destPath on host.
func CopyToRemote(ctx context.Context, d Dialer, sourcePath string, host cluster.RemoteHost, destPath string) error {
	return WithSession(ctx, d, host, func(s Session) error {
		return s.Upload(ctx, sourcePath, destPath)
	})
}

// CopyFromRemote downloads sourcePath from host into destPath.
func CopyFromRemote(ctx context.Context, d Dialer, host cluster.RemoteHost, sourcePath, destPath string) error {
	return WithSession(ctx, d, host, func(s Session) error {
		return s.Download(ctx, sourcePath, destPath)
	})
}

// RelayCommand is the command run on the origin host to push path to target.
func RelayCommand(path string, target cluster.RemoteHost) string {
	return fmt.Sprintf("scp %s %s:%s", ShellQuote(path), target.PublicAddress, ShellQuote(path))
}

// Relay copies path from the origin session's host to the same path on
// target. The copy runs on the origin, which therefore needs its own
// credentials for target.
func Relay(ctx context.Context, origin Session, path string, target cluster.RemoteHost) error {
	_, err := origin.Run(ctx, RelayCommand(path, target))
	return err
}
