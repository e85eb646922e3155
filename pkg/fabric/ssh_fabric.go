// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package fabric

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	cryptossh "golang.org/x/crypto/ssh"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/plan"
	"github.com/vmware/hstore-fabric/pkg/ssh"
	"github.com/vmware/hstore-fabric/pkg/task"
)

var ErrUnknownHost = errors.New("host is not part of the pool")

// SSHFabric manages statically provisioned hosts over SSH. Hosts are
// externally managed: they are never created or destroyed, and are always
// considered running.
type SSHFabric struct {
	env      config.Env
	pool     *cluster.Pool
	dialer   executor.Dialer
	instance task.Instance
	options  plan.Options
	log      logr.Logger
}

var _ Fabric = &SSHFabric{}

type Option func(*SSHFabric)

// WithDialer replaces the SSH dialer built from the environment.
func WithDialer(d executor.Dialer) Option {
	return func(f *SSHFabric) { f.dialer = d }
}

// WithInstance replaces the H-Store per-host collaborator.
func WithInstance(i task.Instance) Option {
	return func(f *SSHFabric) { f.instance = i }
}

func WithLogger(log logr.Logger) Option {
	return func(f *SSHFabric) { f.log = log }
}

// WithMetrics records remote operations of the default SSH dialer.
func WithMetrics(m *executor.Metrics) Option {
	return func(f *SSHFabric) {
		if d, ok := f.dialer.(*executor.SSHDialer); ok {
			d.Metrics = m
		}
	}
}

// New builds the fabric for env. The host pool is fixed from here on.
func New(env config.Env, opts ...Option) (*SSHFabric, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	pool, err := cluster.NewPool(env.Hosts(), env.SiteCount())
	if err != nil {
		return nil, fmt.Errorf("failed to build host pool: %w", err)
	}

	f := &SSHFabric{
		env:      env,
		pool:     pool,
		instance: task.NewHStore(env),
		log:      logr.Discard(),
	}

	var cb cryptossh.HostKeyCallback
	if mode := env.HostKeyChecking(); mode != "" {
		if cb, err = ssh.HostKeyCallbackForMode(mode); err != nil {
			return nil, err
		}
	}
	f.dialer = executor.NewSSHDialer(env, cb)

	for _, opt := range opts {
		opt(f)
	}
	if d, ok := f.dialer.(*executor.SSHDialer); ok {
		d.Log = f.log.WithName("ssh")
	}

	policy := plan.AbortOnError
	if env.ContinueOnError() {
		policy = plan.ContinueOnError
	}
	f.options = plan.Options{
		Parallelism: env.Parallelism(),
		Policy:      policy,
		Log:         f.log.WithName("dispatch"),
	}
	return f, nil
}

// Env returns the merged configuration the fabric was built with.
func (f *SSHFabric) Env() config.Env {
	return f.env
}

// forEachHost runs one Task per running host, built by newTask.
func (f *SSHFabric) forEachHost(ctx context.Context, name string, newTask func() task.Task) (*plan.Report, error) {
	p := &plan.ExecutionPlan{Name: name, Options: f.options}
	for _, h := range f.pool.Running() {
		p.Sessions = append(p.Sessions, &plan.RemoteSession{
			Host:  h,
			Tasks: []task.Task{newTask()},
		})
	}

	f.log.Info("Running cluster operation", "operation", name, "hosts", len(p.Sessions),
		"parallelism", f.options.Parallelism, "policy", f.options.Policy.String())
	report, err := p.Execute(ctx, f.dialer)
	if err != nil {
		return report, fmt.Errorf("%s failed: %w", name, err)
	}
	return report, nil
}

func (f *SSHFabric) StartCluster(ctx context.Context, build, update bool) (*plan.Report, error) {
	return f.forEachHost(ctx, "StartCluster", func() task.Task {
		return f.instance.Setup(build, update)
	})
}

// StopCluster does nothing: the hosts are managed outside the fabric.
func (f *SSHFabric) StopCluster(context.Context) error {
	return nil
}

// SyncTime does nothing: static hosts are expected to run their own time sync.
func (f *SSHFabric) SyncTime(context.Context) error {
	return nil
}

func (f *SSHFabric) DeployHStore(ctx context.Context, build, update bool) (*plan.Report, error) {
	return f.StartCluster(ctx, build, update)
}

func (f *SSHFabric) WriteConf(ctx context.Context, project string, removals []string, revertFirst bool) (*plan.Report, error) {
	return f.forEachHost(ctx, "WriteConf", func() task.Task {
		return f.instance.WriteConf(project, removals, revertFirst)
	})
}

func (f *SSHFabric) ResetDebugging(ctx context.Context) (*plan.Report, error) {
	return f.forEachHost(ctx, "ResetDebugging", f.instance.ResetDebugging)
}

func (f *SSHFabric) EnableDebugging(ctx context.Context, debug, trace []string) (*plan.Report, error) {
	return f.forEachHost(ctx, "EnableDebugging", func() task.Task {
		return f.instance.EnableDebugging(debug, trace)
	})
}

func (f *SSHFabric) ClearLogs(ctx context.Context) (*plan.Report, error) {
	return f.forEachHost(ctx, "ClearLogs", f.instance.ClearLogs)
}

// Exec runs command on each of hosts. With a check the command is polled
// until the check passes.
func (f *SSHFabric) Exec(ctx context.Context, hosts []cluster.RemoteHost, command string, check *task.Check) (*plan.Report, error) {
	p := &plan.ExecutionPlan{Name: "Exec", Options: f.options}
	for _, h := range hosts {
		p.Sessions = append(p.Sessions, &plan.RemoteSession{
			Host:  h,
			Tasks: []task.Task{&task.CommandTask{Description: "Exec", Command: command, Check: check}},
		})
	}
	report, err := p.Execute(ctx, f.dialer)
	if err != nil {
		return report, fmt.Errorf("exec failed: %w", err)
	}
	return report, nil
}

func (f *SSHFabric) AllInstances() []cluster.RemoteHost {
	return f.pool.All()
}

func (f *SSHFabric) RunningInstances() []cluster.RemoteHost {
	return f.pool.Running()
}

func (f *SSHFabric) RunningSiteInstances() []cluster.RemoteHost {
	return f.pool.Sites()
}

func (f *SSHFabric) RunningClientInstances() []cluster.RemoteHost {
	return f.pool.Clients()
}

// Instance finds the host whose public address matches address.
func (f *SSHFabric) Instance(address string) (cluster.RemoteHost, bool) {
	return f.pool.Lookup(address)
}
