// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package fabric

import (
	"context"
	"fmt"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/plan"
)

// DistributeFile pushes path from origin to the same path on every other
// running host. All copies are issued from a single session on origin, so
// origin needs SSH access to its peers. The copies run one after another on
// that session regardless of the configured parallelism.
func (f *SSHFabric) DistributeFile(ctx context.Context, origin cluster.RemoteHost, path string) (*plan.Report, error) {
	origin, ok := f.pool.Lookup(origin.PublicAddress)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHost, origin.Name)
	}

	var targets []cluster.RemoteHost
	for _, h := range f.pool.Running() {
		if h.Name == origin.Name {
			continue
		}
		targets = append(targets, h)
	}

	f.log.Info("Distributing file", "origin", origin.Name, "path", path, "targets", len(targets))

	opts := f.options
	opts.Parallelism = 1

	var report *plan.Report
	err := executor.WithSession(ctx, f.dialer, origin, func(s executor.Session) error {
		report = plan.Dispatch(ctx, "DistributeFile", targets, opts, func(ctx context.Context, target cluster.RemoteHost) (string, error) {
			return "", executor.Relay(ctx, s, path, target)
		})
		return report.Err()
	})
	if report == nil {
		// origin was unreachable, nothing was attempted
		report = &plan.Report{Name: "DistributeFile"}
		for _, h := range targets {
			report.Results = append(report.Results, plan.HostResult{Host: h.Name, Skipped: true})
		}
	}
	if err != nil {
		return report, fmt.Errorf("DistributeFile failed: %w", err)
	}
	return report, nil
}

// PushFile uploads a local file to remotePath on every running host.
func (f *SSHFabric) PushFile(ctx context.Context, localPath, remotePath string) (*plan.Report, error) {
	f.log.Info("Pushing file", "local", localPath, "remote", remotePath)

	report := plan.Dispatch(ctx, "PushFile", f.pool.Running(), f.options, func(ctx context.Context, h cluster.RemoteHost) (string, error) {
		return "", executor.CopyToRemote(ctx, f.dialer, localPath, h, remotePath)
	})
	if err := report.Err(); err != nil {
		return report, fmt.Errorf("PushFile failed: %w", err)
	}
	return report, nil
}
