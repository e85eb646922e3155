// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/ssh/sshtest"
)

func newSSHDialer(t *testing.T) (*sshtest.Server, *executor.SSHDialer, *prometheus.Registry) {
	t.Helper()

	server, err := sshtest.NewServer("hstore", "secret", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })

	env := config.Env{
		config.KeyUser:     "hstore",
		config.KeyPassword: "secret",
		config.KeyPort:     server.Port(),
	}
	reg := prometheus.NewRegistry()
	dialer := executor.NewSSHDialer(env, server.HostKeyCallback())
	dialer.Metrics = executor.NewMetrics(reg)
	return server, dialer, reg
}

func TestSSHDialerRun(t *testing.T) {
	server, dialer, reg := newSSHDialer(t)
	server.SetExitStatus("ant build", 3)
	host := cluster.NewRemoteHost("127.0.0.1")

	res, err := executor.Run(context.Background(), dialer, host, "git -C /opt/hstore pull")
	require.NoError(t, err)
	require.Equal(t, sshtest.DefaultReply, res.Output)

	_, err = executor.Run(context.Background(), dialer, host, "ant build")
	var execErr *executor.RemoteExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, 3, execErr.ExitStatus)
	require.Equal(t, "127.0.0.1", execErr.Host)

	require.Equal(t, []string{"git -C /opt/hstore pull", "ant build"}, server.ExecutedCommands())
	require.Equal(t, 2.0, testutil.ToFloat64(dialer.Metrics.ConnectionsCounter().WithLabelValues("127.0.0.1", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(dialer.Metrics.CommandsCounter().WithLabelValues("127.0.0.1", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(dialer.Metrics.CommandsCounter().WithLabelValues("127.0.0.1", "success")))

	count, err := testutil.GatherAndCount(reg, "hstore_fabric_remote_command_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSSHDialerCopyToRemote(t *testing.T) {
	server, dialer, _ := newSSHDialer(t)
	host := cluster.NewRemoteHost("127.0.0.1")

	local := filepath.Join(t.TempDir(), "hstore.jar")
	require.NoError(t, os.WriteFile(local, []byte("jar"), 0o644))

	require.NoError(t, executor.CopyToRemote(context.Background(), dialer, local, host, "hstore.jar"))

	content, err := os.ReadFile(filepath.Join(server.RootDir(), "hstore.jar"))
	require.NoError(t, err)
	require.Equal(t, "jar", string(content))
}

func TestSSHDialerCopyFromRemote(t *testing.T) {
	server, dialer, _ := newSSHDialer(t)
	host := cluster.NewRemoteHost("127.0.0.1")
	require.NoError(t, os.WriteFile(filepath.Join(server.RootDir(), "site.log"), []byte("log line"), 0o644))

	local := filepath.Join(t.TempDir(), "site.log")
	require.NoError(t, executor.CopyFromRemote(context.Background(), dialer, host, "site.log", local))

	content, err := os.ReadFile(local)
	require.NoError(t, err)
	require.Equal(t, "log line", string(content))

	missing := filepath.Join(t.TempDir(), "missing.log")
	err = executor.CopyFromRemote(context.Background(), dialer, host, "missing.log", missing)
	var execErr *executor.RemoteExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "download missing.log -> "+missing, execErr.Command)
}

func TestSSHDialerConnectionError(t *testing.T) {
	_, dialer, _ := newSSHDialer(t)
	dialer.Password = "wrong"

	_, err := executor.Run(context.Background(), dialer, cluster.NewRemoteHost("127.0.0.1"), "hostname")
	var connErr *executor.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, 1.0, testutil.ToFloat64(dialer.Metrics.ConnectionsCounter().WithLabelValues("127.0.0.1", "failure")))
}
