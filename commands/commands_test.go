// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/executor/executortest"
	"github.com/vmware/hstore-fabric/pkg/fabric"
	"github.com/vmware/hstore-fabric/pkg/plan"
)

const clusterConfig = `
ssh.hosts:
  - istc4
  - istc3
  - istc5
site.count: 2
hstore.basedir: /opt/hstore
hstore.profiles:
  tpcc:
    client.txnrate: "1000"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs a freshly built command tree, so flag values never carry
// over between calls.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// fakeCluster routes every fabric the CLI builds through a recording dialer.
func fakeCluster(t *testing.T) *executortest.Dialer {
	t.Helper()
	dialer := executortest.NewDialer()
	fabricOptions = []fabric.Option{fabric.WithDialer(dialer)}
	t.Cleanup(func() { fabricOptions = nil })
	return dialer
}

func commandsTo(dialer *executortest.Dialer, host string) []string {
	var out []string
	for _, c := range dialer.CallsTo(host) {
		out = append(out, c.Command)
	}
	return out
}

func TestInstancesCommand(t *testing.T) {
	path := writeConfig(t, `
ssh.hosts:
  - istc4
  - istc3
  - istc5
site.count: 2
`)

	out, err := execute(t, "instances", "--config", path)
	require.NoError(t, err)
	require.Equal(t, "istc3\tistc3\tsite\nistc4\tistc4\tsite\nistc5\tistc5\tclient\n", out)

	out, err = execute(t, "instances", "--config", path, "--sites")
	require.NoError(t, err)
	require.Equal(t, "istc3\tistc3\tsite\nistc4\tistc4\tsite\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "hstore-fabric version: ")
}

func TestFlagOverrides(t *testing.T) {
	cmd := NewCommandClearLogs()
	cmd.Flags().AddFlagSet(NewRootCmd().PersistentFlags())
	require.NoError(t, cmd.Flags().Parse([]string{"--parallel", "4", "--hosts", "a,b"}))

	overrides := flagOverrides(cmd)
	require.Equal(t, 4, overrides[config.KeyParallelism])
	require.Equal(t, []string{"a", "b"}, overrides[config.KeyHosts])
	require.NotContains(t, overrides, config.KeySiteCount)
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	path := writeConfig(t, clusterConfig)

	out, err := execute(t, "instances", "--config", path, "--hosts", "a,b", "--site-count", "1")
	require.NoError(t, err)
	require.Equal(t, "a\ta\tsite\nb\tb\tclient\n", out)

	out, err = execute(t, "instances", "--config", path)
	require.NoError(t, err)
	require.Equal(t, "istc3\tistc3\tsite\nistc4\tistc4\tsite\nistc5\tistc5\tclient\n", out)
}

func TestWriteConfCommand(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)

	out, stderr, err := executeWithStderr(t, "write-conf", "--config", path, "--project", "tpcc", "--remove", "a+b", "--revert")
	require.NoError(t, err)
	require.Empty(t, stderr)
	require.Equal(t, "istc3: ok\nistc4: ok\nistc5: ok\n", out)

	file := "/opt/hstore/properties/default.properties"
	require.Equal(t, []string{
		"git -C /opt/hstore checkout -- properties/default.properties",
		`sed -i '/^a+b[[:space:]]*=/d' ` + file,
		`sed -i '/^client\.txnrate[[:space:]]*=/d' ` + file + ` && printf '%s\n' 'client.txnrate = 1000' >> ` + file,
	}, commandsTo(dialer, "istc5"))
}

func TestWriteConfCommandUnknownProject(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)

	_, stderr, err := executeWithStderr(t, "write-conf", "--config", path, "--project", "ycsb", "--remove", "site.memory")
	require.NoError(t, err)
	require.Equal(t, "No configuration profile for project ycsb, only removals are applied\n", stderr)
	require.Len(t, commandsTo(dialer, "istc3"), 1)
}

func TestWriteConfCommandRequiresProject(t *testing.T) {
	_, err := execute(t, "write-conf", "--config", writeConfig(t, clusterConfig))
	require.ErrorContains(t, err, `"project" not set`)
}

func TestDistributeCommandWithOrigin(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)

	out, err := execute(t, "distribute", "--config", path, "--file", "/opt/hstore/hstore.jar", "--origin", "istc4")
	require.NoError(t, err)
	require.Equal(t, "istc3: ok\nistc5: ok\n", out)
	require.Equal(t, []string{"istc4"}, dialer.Opened())
	require.Equal(t, []string{
		"scp /opt/hstore/hstore.jar istc3:/opt/hstore/hstore.jar",
		"scp /opt/hstore/hstore.jar istc5:/opt/hstore/hstore.jar",
	}, commandsTo(dialer, "istc4"))
}

func TestDistributeCommandUnknownOrigin(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)

	_, err := execute(t, "distribute", "--config", path, "--file", "/tmp/x", "--origin", "istc9")
	require.ErrorContains(t, err, `origin "istc9" is not in the host pool`)
	require.Empty(t, dialer.Opened())
}

func TestPushCommandValidation(t *testing.T) {
	path := writeConfig(t, clusterConfig)

	testCases := []struct {
		name string
		args []string
	}{
		{name: "neither", args: nil},
		{name: "both", args: []string{"--file", "/tmp/hstore.jar", "--s3", "s3://artifacts/hstore.jar"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dialer := fakeCluster(t)
			_, err := execute(t, append([]string{"push", "--config", path}, tc.args...)...)
			require.EqualError(t, err, "exactly one of --file or --s3 must be set")
			require.Empty(t, dialer.Calls())
		})
	}
}

func TestPushCommandLocalFile(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)

	out, err := execute(t, "push", "--config", path, "--file", "/build/hstore.jar")
	require.NoError(t, err)
	require.Equal(t, "istc3: ok\nistc4: ok\nistc5: ok\n", out)
	require.Equal(t, []string{"upload /build/hstore.jar /opt/hstore/hstore.jar"}, commandsTo(dialer, "istc3"))

	_, err = execute(t, "push", "--config", path, "--file", "/build/hstore.jar", "--dest", "/srv/h.jar")
	require.NoError(t, err)
	require.Equal(t, "upload /build/hstore.jar /srv/h.jar", commandsTo(dialer, "istc3")[1])
}

func TestCollectLogsCommand(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)
	dir := t.TempDir()

	out, err := execute(t, "collect-logs", "--config", path, "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "istc3: ok\noutput:\n "+filepath.Join(dir, "istc3-logs.tar.gz")+"\n")
	require.FileExists(t, filepath.Join(dir, "istc5-logs.tar.gz"))
	for _, cmd := range commandsTo(dialer, "istc4") {
		require.NotContains(t, cmd, "rm -rf")
	}
}

func TestClearLogsCommandCollectsFirst(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)
	dir := t.TempDir()

	_, err := execute(t, "clear-logs", "--config", path, "--collect", dir)
	require.NoError(t, err)

	cmds := commandsTo(dialer, "istc3")
	require.Len(t, cmds, 4)
	require.Equal(t, "download /tmp/hstore-fabric-istc3-logs.tar.gz "+filepath.Join(dir, "istc3-logs.tar.gz"), cmds[1])
	require.Equal(t, "rm -rf /opt/hstore/obj/logs/*", cmds[3])
}

func TestClearLogsCommandKeepsLogsWhenCollectFails(t *testing.T) {
	path := writeConfig(t, clusterConfig)
	dialer := fakeCluster(t)
	dialer.FailCommand("istc4", "download", 1)

	_, err := execute(t, "clear-logs", "--config", path, "--collect", t.TempDir())
	require.ErrorContains(t, err, "logs were not cleared")
	for _, c := range dialer.Calls() {
		require.NotContains(t, c.Command, "rm -rf")
	}
}

func TestPrintReport(t *testing.T) {
	report := &plan.Report{Results: []plan.HostResult{
		{Host: "a", Output: "up"},
		{Host: "b", Err: errors.New("exit status 1")},
		{Host: "c", Skipped: true},
	}}

	var out bytes.Buffer
	printReport(&out, report, true)
	require.Equal(t, "a: ok\noutput:\n up\nb: failed: exit status 1\nc: skipped\n", out.String())
}

func TestHostOptions(t *testing.T) {
	hosts := []cluster.RemoteHost{cluster.NewRemoteHost("istc3"), cluster.NewRemoteHost("istc4")}
	require.Equal(t, []string{"istc3 (istc3)", "istc4 (istc4)"}, hostOptions(hosts))
}

func TestMalformedConfigIsRejected(t *testing.T) {
	path := writeConfig(t, clusterConfig+"fabric.parallelism: four\n")
	dialer := fakeCluster(t)

	_, err := execute(t, "clear-logs", "--config", path)
	require.ErrorIs(t, err, config.ErrInvalidOption)
	require.Empty(t, dialer.Calls())
}
