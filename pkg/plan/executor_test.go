// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package plan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/executor/executortest"
	"github.com/vmware/hstore-fabric/pkg/task"
)

var errMockTask = errors.New("mock task failure")

type mockTask struct {
	shouldFail bool
}

func (m *mockTask) Name() string { return "MockTask" }
func (m *mockTask) Run(ctx context.Context, s executor.Session) (string, error) {
	if m.shouldFail {
		return "", errMockTask
	}
	return "mocked_output", nil
}

func hosts(names ...string) []cluster.RemoteHost {
	out := make([]cluster.RemoteHost, len(names))
	for i, n := range names {
		out[i] = cluster.NewRemoteHost(n)
	}
	return out
}

func newPlan(failing string, opts Options, names ...string) *ExecutionPlan {
	p := &ExecutionPlan{Name: "TestPlan", Options: opts}
	for _, h := range hosts(names...) {
		p.Sessions = append(p.Sessions, &RemoteSession{
			Host:  h,
			Tasks: []task.Task{&mockTask{shouldFail: h.Name == failing}},
		})
	}
	return p
}

func TestExecute_Success(t *testing.T) {
	dialer := executortest.NewDialer()
	p := newPlan("", Options{}, "h1", "h2", "h3")

	report, err := p.Execute(context.Background(), dialer)
	require.NoError(t, err)
	require.Equal(t, []string{"h1", "h2", "h3"}, report.Attempted())
	require.Equal(t, "mocked_output", report.Results[0].Output)
	require.Equal(t, []string{"h1", "h2", "h3"}, dialer.Opened())
	require.Equal(t, dialer.Opened(), dialer.Closed())
}

func TestExecute_AbortOnFirstFailure(t *testing.T) {
	dialer := executortest.NewDialer()
	p := newPlan("h2", Options{Policy: AbortOnError}, "h1", "h2", "h3")

	report, err := p.Execute(context.Background(), dialer)
	require.ErrorIs(t, err, errMockTask)
	require.Equal(t, []string{"h1", "h2"}, report.Attempted())
	require.Equal(t, []string{"h3"}, report.Skipped())
	require.Equal(t, []string{"h1", "h2"}, dialer.Opened())
	require.Equal(t, []string{"h1", "h2"}, dialer.Closed())
}

func TestExecute_ContinueOnError(t *testing.T) {
	dialer := executortest.NewDialer()
	dialer.Unreachable("h1")
	p := newPlan("h2", Options{Policy: ContinueOnError}, "h1", "h2", "h3")

	report, err := p.Execute(context.Background(), dialer)
	require.ErrorIs(t, err, errMockTask)

	var connErr *executor.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Len(t, report.Failed(), 2)
	require.Empty(t, report.Skipped())
	require.Equal(t, []string{"h2", "h3"}, dialer.Opened())
}

func TestExecute_ConnectionErrorAborts(t *testing.T) {
	dialer := executortest.NewDialer()
	dialer.Unreachable("h1")
	p := newPlan("", Options{}, "h1", "h2")

	report, err := p.Execute(context.Background(), dialer)
	var connErr *executor.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, []string{"h2"}, report.Skipped())
	require.Empty(t, dialer.Opened())
}

func TestDispatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	report := Dispatch(ctx, "cancelled", hosts("h1", "h2"), Options{}, func(context.Context, cluster.RemoteHost) (string, error) {
		calls.Add(1)
		return "", nil
	})
	require.Equal(t, int32(0), calls.Load())
	require.Equal(t, []string{"h1", "h2"}, report.Skipped())
	require.NoError(t, report.Err())
}

func TestDispatch_Parallel(t *testing.T) {
	var calls atomic.Int32
	names := []string{"h1", "h2", "h3", "h4", "h5"}

	report := Dispatch(context.Background(), "parallel", hosts(names...), Options{Parallelism: 3},
		func(_ context.Context, h cluster.RemoteHost) (string, error) {
			calls.Add(1)
			return h.Name, nil
		})
	require.NoError(t, report.Err())
	require.Equal(t, int32(5), calls.Load())
	for i, res := range report.Results {
		require.Equal(t, names[i], res.Host)
		require.Equal(t, names[i], res.Output)
	}
}

func TestDispatch_ParallelContinueOnError(t *testing.T) {
	report := Dispatch(context.Background(), "parallel", hosts("h1", "h2", "h3", "h4"),
		Options{Parallelism: 2, Policy: ContinueOnError},
		func(_ context.Context, h cluster.RemoteHost) (string, error) {
			if h.Name == "h1" || h.Name == "h4" {
				return "", errMockTask
			}
			return "ok", nil
		})

	require.Len(t, report.Failed(), 2)
	require.Empty(t, report.Skipped())
	require.ErrorIs(t, report.Err(), errMockTask)
	require.Contains(t, report.Err().Error(), "h1")
	require.Contains(t, report.Err().Error(), "h4")
}

func TestDispatch_ParallelAbortCancelsOthers(t *testing.T) {
	started := make(chan struct{})
	report := Dispatch(context.Background(), "parallel", hosts("h1", "h2"),
		Options{Parallelism: 2, Policy: AbortOnError},
		func(ctx context.Context, h cluster.RemoteHost) (string, error) {
			if h.Name == "h1" {
				<-started
				return "", errMockTask
			}
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		})

	require.ErrorIs(t, report.Err(), errMockTask)
	require.ErrorIs(t, report.Results[1].Err, context.Canceled)
}

func TestPolicyString(t *testing.T) {
	require.Equal(t, "abort", AbortOnError.String())
	require.Equal(t, "continue", ContinueOnError.String())
}
