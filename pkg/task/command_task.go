// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmware/hstore-fabric/pkg/executor"
)

// CommandTask runs one shell command. Without a Check the command is
// issued exactly once and any failure is returned as is. With a Check the
// command is polled until the check passes or the timeout expires.
type CommandTask struct {
	Description string
	Command     string
	Check       *Check
}

type Check struct {
	ExpectedExitCode  int
	ExpectedOutput    string
	NotExpectedOutput string
	TimeoutSec        int
	RetryIntervalSec  int
}

func (t *CommandTask) Name() string {
	return "CommandTask"
}

func (t *CommandTask) Run(ctx context.Context, s executor.Session) (string, error) {
	if t.Check == nil {
		res, err := s.Run(ctx, t.Command)
		if res == nil {
			return "", err
		}
		return res.Output, err
	}
	return t.poll(ctx, s)
}

func (t *CommandTask) poll(ctx context.Context, s executor.Session) (string, error) {
	var (
		timeout  = 10 * time.Second
		interval = time.Second
	)
	if t.Check.TimeoutSec > 0 {
		timeout = time.Duration(t.Check.TimeoutSec) * time.Second
	}
	if t.Check.RetryIntervalSec > 0 {
		interval = time.Duration(t.Check.RetryIntervalSec) * time.Second
	}

	deadline := time.Now().Add(timeout)
	var lasterr error
	for {
		out, err := t.attempt(ctx, s)
		if err == nil {
			return out, nil
		}
		lasterr = err

		if time.Now().Add(interval).After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("command '%s' cancelled: %w", t.Command, ctx.Err())
		case <-time.After(interval):
		}
	}

	return "", fmt.Errorf("command '%s' failed after timed out, error: %w", t.Command, lasterr)
}

// attempt runs the command once and validates the result against the check.
func (t *CommandTask) attempt(ctx context.Context, s executor.Session) (string, error) {
	res, err := s.Run(ctx, t.Command)
	exitCode := 0
	if err != nil {
		var execErr *executor.RemoteExecutionError
		if !errors.As(err, &execErr) || execErr.ExitStatus < 0 {
			return "", err
		}
		exitCode = execErr.ExitStatus
	}

	out := ""
	if res != nil {
		out = res.Output
	}

	if exitCode != t.Check.ExpectedExitCode {
		return "", fmt.Errorf("command '%s' validation failed: expected exit code %d but got %d", t.Command, t.Check.ExpectedExitCode, exitCode)
	}
	if t.Check.ExpectedOutput != "" && !strings.Contains(out, t.Check.ExpectedOutput) {
		return "", fmt.Errorf("command '%s' validation failed: expected output : %s not found", t.Command, t.Check.ExpectedOutput)
	}
	if t.Check.NotExpectedOutput != "" && strings.Contains(out, t.Check.NotExpectedOutput) {
		return "", fmt.Errorf("command '%s' validation failed: not expected output : %s found", t.Command, t.Check.NotExpectedOutput)
	}
	return out, nil
}
