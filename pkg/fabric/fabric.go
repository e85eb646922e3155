// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package fabric orchestrates an H-Store cluster made of a fixed pool of
// SSH-reachable hosts. Every cluster operation fans out over the pool
// through pkg/plan, one remote session per host.
package fabric

import (
	"context"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/plan"
)

// Fabric is the capability set shared by cluster backends.
type Fabric interface {
	StartCluster(ctx context.Context, build, update bool) (*plan.Report, error)
	StopCluster(ctx context.Context) error
	SyncTime(ctx context.Context) error
	DeployHStore(ctx context.Context, build, update bool) (*plan.Report, error)
	WriteConf(ctx context.Context, project string, removals []string, revertFirst bool) (*plan.Report, error)
	ResetDebugging(ctx context.Context) (*plan.Report, error)
	EnableDebugging(ctx context.Context, debug, trace []string) (*plan.Report, error)
	ClearLogs(ctx context.Context) (*plan.Report, error)
	CollectLogs(ctx context.Context, localDir string) (*plan.Report, error)
	DistributeFile(ctx context.Context, origin cluster.RemoteHost, path string) (*plan.Report, error)

	AllInstances() []cluster.RemoteHost
	RunningInstances() []cluster.RemoteHost
	RunningSiteInstances() []cluster.RemoteHost
	RunningClientInstances() []cluster.RemoteHost
	Instance(address string) (cluster.RemoteHost, bool)
}
