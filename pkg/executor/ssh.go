// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	cryptossh "golang.org/x/crypto/ssh"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/ssh"
)

// SSHDialer opens sessions with the credentials of a configuration
// environment.
type SSHDialer struct {
	User                 string
	Port                 int
	Timeout              time.Duration
	Password             string
	PrivateKeyPath       string
	PrivateKeyPassphrase string
	HostKeyCallback      cryptossh.HostKeyCallback

	Log     logr.Logger
	Metrics *Metrics
}

// NewSSHDialer builds a dialer from env. hostKeyCallback may be nil to use
// the interactive known_hosts prompt.
func NewSSHDialer(env config.Env, hostKeyCallback cryptossh.HostKeyCallback) *SSHDialer {
	return &SSHDialer{
		User:                 env.User(),
		Port:                 env.Port(),
		Timeout:              env.Timeout(),
		Password:             env.Password(),
		PrivateKeyPath:       env.KeyFilename(),
		PrivateKeyPassphrase: env.Passphrase(),
		HostKeyCallback:      hostKeyCallback,
		Log:                  logr.Discard(),
	}
}

func (d *SSHDialer) Open(ctx context.Context, host cluster.RemoteHost) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Host: host.Name, Err: err}
	}

	cfg := &ssh.Config{
		User:                 d.User,
		Host:                 host.PublicAddress,
		Port:                 d.Port,
		Timeout:              d.Timeout,
		Password:             d.Password,
		PrivateKeyPath:       d.PrivateKeyPath,
		PrivateKeyPassphrase: d.PrivateKeyPassphrase,
	}
	if d.HostKeyCallback != nil {
		cfg.SetHostKeyCallback(d.HostKeyCallback)
	}

	log := d.Log.WithValues("host", host.Name)
	log.V(1).Info("Connecting", "user", d.User, "port", d.Port)

	client, err := ssh.NewClient(cfg)
	if err != nil {
		d.Metrics.observeConnect(host.Name, err)
		return nil, &ConnectionError{Host: host.Name, Err: err}
	}
	d.Metrics.observeConnect(host.Name, nil)

	return &sshSession{host: host, client: client, log: log, metrics: d.Metrics}, nil
}

type sshSession struct {
	host    cluster.RemoteHost
	client  *ssh.Client
	log     logr.Logger
	metrics *Metrics
}

func (s *sshSession) Host() cluster.RemoteHost {
	return s.host
}

func (s *sshSession) Run(ctx context.Context, command string) (*Result, error) {
	s.log.V(1).Info("Executing command", "command", command)

	start := time.Now()
	out, err := s.client.Run(ctx, command)
	s.metrics.observeCommand(s.host.Name, time.Since(start), err)

	res := &Result{Output: string(out)}
	if err == nil {
		return res, nil
	}

	execErr := &RemoteExecutionError{
		Host:       s.host.Name,
		Command:    command,
		ExitStatus: -1,
		Output:     string(out),
		Err:        err,
	}
	var exitErr *cryptossh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitStatus = exitErr.ExitStatus()
		execErr.ExitStatus = exitErr.ExitStatus()
	}
	return res, execErr
}

func (s *sshSession) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.log.V(1).Info("Uploading file", "local", localPath, "remote", remotePath)
	start := time.Now()
	err := s.client.Upload(ctx, localPath, remotePath)
	s.metrics.observeCommand(s.host.Name, time.Since(start), err)
	if err != nil {
		return &RemoteExecutionError{
			Host:       s.host.Name,
			Command:    fmt.Sprintf("upload %s -> %s", localPath, remotePath),
			ExitStatus: -1,
			Err:        err,
		}
	}
	return nil
}

func (s *sshSession) Download(ctx context.Context, remotePath, localPath string) error {
	s.log.V(1).Info("Downloading file", "remote", remotePath, "local", localPath)
	start := time.Now()
	err := s.client.Download(ctx, remotePath, localPath)
	s.metrics.observeCommand(s.host.Name, time.Since(start), err)
	if err != nil {
		return &RemoteExecutionError{
			Host:       s.host.Name,
			Command:    fmt.Sprintf("download %s -> %s", remotePath, localPath),
			ExitStatus: -1,
			Err:        err,
		}
	}
	return nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
