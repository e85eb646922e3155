// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package plan

import (
	"context"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
)

// Execute opens one session per host and runs that host's tasks in order.
// Sessions are closed on every path.
func (p *ExecutionPlan) Execute(ctx context.Context, dialer executor.Dialer) (*Report, error) {
	hosts := make([]cluster.RemoteHost, len(p.Sessions))
	tasks := make(map[string]*RemoteSession, len(p.Sessions))
	for i, session := range p.Sessions {
		hosts[i] = session.Host
		tasks[session.Host.Name] = session
	}

	report := Dispatch(ctx, p.Name, hosts, p.Options, func(ctx context.Context, host cluster.RemoteHost) (string, error) {
		var out string
		err := executor.WithSession(ctx, dialer, host, func(s executor.Session) error {
			for _, t := range tasks[host.Name].Tasks {
				o, err := t.Run(ctx, s)
				out += o
				if err != nil {
					return err
				}
			}
			return nil
		})
		return out, err
	})
	return report, report.Err()
}
