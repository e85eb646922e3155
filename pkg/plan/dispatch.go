// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package plan

import (
	"context"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/vmware/hstore-fabric/pkg/cluster"
)

// Options control fan-out over hosts. Parallelism below 2 runs hosts one
// at a time in order.
type Options struct {
	Parallelism int
	Policy      Policy
	Log         logr.Logger
}

// HostFunc is the work done for a single host.
type HostFunc func(ctx context.Context, host cluster.RemoteHost) (string, error)

// Dispatch runs fn for every host and reports the outcome per host, in the
// order of hosts.
func Dispatch(ctx context.Context, name string, hosts []cluster.RemoteHost, opts Options, fn HostFunc) *Report {
	report := &Report{Name: name, Results: make([]HostResult, len(hosts))}
	for i, h := range hosts {
		report.Results[i].Host = h.Name
	}

	log := opts.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	log = log.WithValues("operation", name)

	if opts.Parallelism < 2 {
		dispatchSequential(ctx, hosts, opts.Policy, log, fn, report)
	} else {
		dispatchParallel(ctx, hosts, opts, log, fn, report)
	}
	return report
}

func dispatchSequential(ctx context.Context, hosts []cluster.RemoteHost, policy Policy, log logr.Logger, fn HostFunc, report *Report) {
	aborted := false
	for i, h := range hosts {
		res := &report.Results[i]
		if aborted {
			res.Skipped = true
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Skipped = true
			aborted = true
			continue
		}

		log.V(1).Info("Dispatching", "host", h.Name)
		res.Output, res.Err = fn(ctx, h)
		if res.Err != nil {
			log.Error(res.Err, "Host failed", "host", h.Name, "policy", policy.String())
			if policy == AbortOnError {
				aborted = true
			}
		}
	}
}

func dispatchParallel(ctx context.Context, hosts []cluster.RemoteHost, opts Options, log logr.Logger, fn HostFunc, report *Report) {
	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if opts.Policy == AbortOnError {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(opts.Parallelism)

	for i, h := range hosts {
		res := &report.Results[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				res.Skipped = true
				return nil
			}

			log.V(1).Info("Dispatching", "host", h.Name)
			res.Output, res.Err = fn(gctx, h)
			if res.Err != nil {
				log.Error(res.Err, "Host failed", "host", h.Name, "policy", opts.Policy.String())
				if opts.Policy == AbortOnError {
					return res.Err
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
