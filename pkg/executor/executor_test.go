// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executor_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/executor/executortest"
)

func TestWithSessionClosesOnError(t *testing.T) {
	dialer := executortest.NewDialer()
	host := cluster.NewRemoteHost("istc3.csail.mit.edu")

	wantErr := errors.New("boom")
	err := executor.WithSession(context.Background(), dialer, host, func(executor.Session) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, []string{host.Name}, dialer.Closed())
}

func TestWithSessionConnectionError(t *testing.T) {
	dialer := executortest.NewDialer()
	host := cluster.NewRemoteHost("istc3.csail.mit.edu")
	dialer.Unreachable(host.Name)

	called := false
	err := executor.WithSession(context.Background(), dialer, host, func(executor.Session) error {
		called = true
		return nil
	})

	var connErr *executor.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, host.Name, connErr.Host)
	require.False(t, called)
	require.Empty(t, dialer.Closed())
}

func TestRun(t *testing.T) {
	dialer := executortest.NewDialer()
	dialer.SetOutput("hostname", "istc3\n")
	dialer.FailCommand("", "false", 1)
	host := cluster.NewRemoteHost("istc3.csail.mit.edu")

	res, err := executor.Run(context.Background(), dialer, host, "hostname")
	require.NoError(t, err)
	require.Equal(t, &executor.Result{ExitStatus: 0, Output: "istc3\n"}, res)

	res, err = executor.Run(context.Background(), dialer, host, "false")
	var execErr *executor.RemoteExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, 1, execErr.ExitStatus)
	require.Equal(t, "false", execErr.Command)
	require.Equal(t, 1, res.ExitStatus)
	require.Contains(t, err.Error(), "exited with status 1")

	require.Equal(t, []string{host.Name, host.Name}, dialer.Closed())
}

func TestCopyToRemote(t *testing.T) {
	dialer := executortest.NewDialer()
	host := cluster.NewRemoteHost("istc4.csail.mit.edu")

	err := executor.CopyToRemote(context.Background(), dialer, "/build/hstore.jar", host, "/opt/hstore/hstore.jar")
	require.NoError(t, err)
	require.Equal(t, []executortest.Call{
		{Host: host.Name, Command: "upload /build/hstore.jar /opt/hstore/hstore.jar"},
	}, dialer.Calls())
}

func TestCopyFromRemote(t *testing.T) {
	dialer := executortest.NewDialer()
	host := cluster.NewRemoteHost("istc4.csail.mit.edu")
	local := filepath.Join(t.TempDir(), "logs.tar.gz")

	err := executor.CopyFromRemote(context.Background(), dialer, host, "/tmp/logs.tar.gz", local)
	require.NoError(t, err)
	require.Equal(t, []executortest.Call{
		{Host: host.Name, Command: "download /tmp/logs.tar.gz " + local},
	}, dialer.Calls())
	require.Equal(t, []string{host.Name}, dialer.Closed())
}

func TestRelay(t *testing.T) {
	dialer := executortest.NewDialer()
	origin := cluster.NewRemoteHost("istc3.csail.mit.edu")
	target := cluster.NewRemoteHost("istc4.csail.mit.edu")

	err := executor.WithSession(context.Background(), dialer, origin, func(s executor.Session) error {
		return executor.Relay(context.Background(), s, "/tmp/x", target)
	})
	require.NoError(t, err)
	require.Equal(t, []executortest.Call{
		{Host: origin.Name, Command: "scp /tmp/x istc4.csail.mit.edu:/tmp/x"},
	}, dialer.Calls())
}

func TestShellQuote(t *testing.T) {
	testCases := map[string]string{
		"":                     "''",
		"/opt/hstore/obj":      "/opt/hstore/obj",
		"site.memory=4096":     "site.memory=4096",
		"with space":           "'with space'",
		"it's":                 `'it'\''s'`,
		"$(reboot)":            "'$(reboot)'",
		"user@istc3:/tmp/file": "user@istc3:/tmp/file",
	}
	for in, want := range testCases {
		require.Equal(t, want, executor.ShellQuote(in), in)
	}
}
