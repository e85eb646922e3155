// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package executortest provides an in-memory executor.Dialer that records
// every session, command and upload.
package executortest

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
)

// Call is one recorded remote operation.
type Call struct {
	Host    string
	Command string
}

// Dialer is a fake executor.Dialer.
type Dialer struct {
	mu          sync.Mutex
	calls       []Call
	opened      []string
	closed      []string
	unreachable map[string]bool
	failures    []failure
	output      map[string]string
}

type failure struct {
	host   string
	substr string
	status int
}

func NewDialer() *Dialer {
	return &Dialer{
		unreachable: make(map[string]bool),
		output:      make(map[string]string),
	}
}

// Unreachable makes Open fail for host.
func (d *Dialer) Unreachable(host string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unreachable[host] = true
}

// FailCommand makes commands containing substr exit with status on host.
// An empty host matches every host.
func (d *Dialer) FailCommand(host, substr string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, failure{host: host, substr: substr, status: status})
}

// SetOutput sets the output returned for commands containing substr.
func (d *Dialer) SetOutput(substr, output string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.output[substr] = output
}

// Calls returns every command and upload in the order they were issued.
func (d *Dialer) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsTo returns the recorded calls for host.
func (d *Dialer) CallsTo(host string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Host == host {
			out = append(out, c)
		}
	}
	return out
}

// Opened returns the hosts a session was opened on, in order.
func (d *Dialer) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

// Closed returns the hosts whose session was closed, in order.
func (d *Dialer) Closed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.closed...)
}

func (d *Dialer) Open(ctx context.Context, host cluster.RemoteHost) (executor.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &executor.ConnectionError{Host: host.Name, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unreachable[host.Name] {
		return nil, &executor.ConnectionError{Host: host.Name, Err: errors.New("connection refused")}
	}
	d.opened = append(d.opened, host.Name)
	return &session{dialer: d, host: host}, nil
}

func (d *Dialer) record(host, command string) (*executor.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Host: host, Command: command})

	res := &executor.Result{}
	for substr, out := range d.output {
		if strings.Contains(command, substr) {
			res.Output = out
		}
	}
	for _, f := range d.failures {
		if (f.host == "" || f.host == host) && strings.Contains(command, f.substr) {
			res.ExitStatus = f.status
			return res, &executor.RemoteExecutionError{
				Host:       host,
				Command:    command,
				ExitStatus: f.status,
				Output:     res.Output,
				Err:        errors.New("simulated failure"),
			}
		}
	}
	return res, nil
}

type session struct {
	dialer *Dialer
	host   cluster.RemoteHost
}

func (s *session) Host() cluster.RemoteHost {
	return s.host
}

func (s *session) Run(ctx context.Context, command string) (*executor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.dialer.record(s.host.Name, command)
}

func (s *session) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.dialer.record(s.host.Name, "upload "+localPath+" "+remotePath)
	return err
}

// Download records "download <remote> <local>" and writes "<host>:<remote>"
// to the local file.
func (s *session) Download(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.dialer.record(s.host.Name, "download "+remotePath+" "+localPath); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte(s.host.Name+":"+remotePath), 0o600)
}

func (s *session) Close() error {
	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	s.dialer.closed = append(s.dialer.closed, s.host.Name)
	return nil
}
