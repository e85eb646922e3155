// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package plan

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/task"
)

// Policy decides what happens to the remaining hosts after one fails.
type Policy int

const (
	// AbortOnError stops dispatching to hosts not yet started.
	AbortOnError Policy = iota
	// ContinueOnError attempts every host and aggregates the failures.
	ContinueOnError
)

func (p Policy) String() string {
	if p == ContinueOnError {
		return "continue"
	}
	return "abort"
}

type ExecutionPlan struct {
	Name     string
	Sessions []*RemoteSession
	Options  Options
}

// RemoteSession is the work done on one host inside a single session.
type RemoteSession struct {
	Host  cluster.RemoteHost
	Tasks []task.Task
}

// HostResult is the outcome on one host. Skipped hosts were never
// attempted because an earlier failure aborted the plan.
type HostResult struct {
	Host    string
	Output  string
	Err     error
	Skipped bool
}

// Report lists one HostResult per host in dispatch order.
type Report struct {
	Name    string
	Results []HostResult
}

func (r *Report) Failed() []HostResult {
	var out []HostResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Skipped() []string {
	var out []string
	for _, res := range r.Results {
		if res.Skipped {
			out = append(out, res.Host)
		}
	}
	return out
}

// Attempted returns the hosts the operation actually ran on.
func (r *Report) Attempted() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Skipped {
			out = append(out, res.Host)
		}
	}
	return out
}

// Err combines the per-host failures, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Failed() {
		err = multierr.Append(err, fmt.Errorf("%s: %w", res.Host, res.Err))
	}
	return err
}
