// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executortest

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
)

// LocalDialer opens sessions that run every command through sh -c on the
// local machine, so tests can check what a command actually does to a file.
type LocalDialer struct{}

func (LocalDialer) Open(ctx context.Context, host cluster.RemoteHost) (executor.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &executor.ConnectionError{Host: host.Name, Err: err}
	}
	return &localSession{host: host}, nil
}

type localSession struct {
	host cluster.RemoteHost
}

func (s *localSession) Host() cluster.RemoteHost {
	return s.host
}

func (s *localSession) Run(ctx context.Context, command string) (*executor.Result, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	res := &executor.Result{Output: string(out)}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitStatus = exitErr.ExitCode()
	}
	return res, &executor.RemoteExecutionError{
		Host:       s.host.Name,
		Command:    command,
		ExitStatus: res.ExitStatus,
		Output:     res.Output,
		Err:        err,
	}
}

func (s *localSession) Upload(_ context.Context, localPath, remotePath string) error {
	return copyFile(localPath, remotePath)
}

func (s *localSession) Download(_ context.Context, remotePath, localPath string) error {
	return copyFile(remotePath, localPath)
}

func (s *localSession) Close() error {
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
