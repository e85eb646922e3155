// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// default constants
const (
	DefaultTimeout = 20 * time.Second
	DefaultPort    = 22
)

// Client is a connection to one host. Commands and file transfers open
// their own channel on it.
type Client struct {
	*ssh.Client
}

type Config struct {
	User                 string
	Host                 string
	Port                 int
	Timeout              time.Duration
	Password             string
	PrivateKeyPath       string
	PrivateKeyPassphrase string
	hostKeyCallBack      ssh.HostKeyCallback
}

func (c *Config) SetHostKeyCallback(hostKeyCallBack ssh.HostKeyCallback) {
	c.hostKeyCallBack = hostKeyCallBack
}

func (c *Config) address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, fmt.Sprint(port))
}

// NewClient dials the host in config. Password auth wins over a key file,
// and with neither set the keys of a running ssh-agent are offered.
func NewClient(config *Config) (*Client, error) {
	auth, err := configureAuth(config.Password, config.PrivateKeyPath, config.PrivateKeyPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to configure auth: %w", err)
	}
	defer auth.Close()

	hostKeyCallback, err := configureHostKeyCallback(config.hostKeyCallBack)
	if err != nil {
		return nil, fmt.Errorf("failed to configure hostKeyCallBack: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client, err := ssh.Dial("tcp", config.address(), &ssh.ClientConfig{
		User:            config.User,
		Auth:            auth.Methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: client}, nil
}

// Run executes cmd on a new channel and returns its combined output. The
// channel is closed as soon as ctx is done.
func (c Client) Run(ctx context.Context, cmd string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := c.NewSession()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = sess.Close()
		case <-done:
		}
	}()

	out, err := sess.CombinedOutput(cmd)
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return out, fmt.Errorf("%w: %w", ctxErr, err)
	}
	return out, err
}

func (c Client) newSftp(opts ...sftp.ClientOption) (*sftp.Client, error) {
	return sftp.NewClient(c.Client, opts...)
}

func (c Client) Close() error {
	return c.Client.Close()
}

// makeTempPath returns a staging path under /tmp for a sudo transfer.
func makeTempPath(basePath string) string {
	return filepath.Join("/tmp", fmt.Sprintf("hstore-fabric_%d_%s", time.Now().UnixNano(), filepath.Base(basePath)))
}

// Upload copies localPath to remotePath, keeping the local file mode. A
// permission error on the target is retried through a sudo move.
func (c Client) Upload(ctx context.Context, localPath string, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	info, err := local.Stat()
	if err != nil {
		return err
	}

	err = c.sftpUpload(local, remotePath, info.Mode())
	if err == nil || !isPermissionDenied(err) {
		return err
	}

	tempPath := makeTempPath(localPath)
	if err := c.sftpUpload(local, tempPath, info.Mode()); err != nil {
		return fmt.Errorf("failed to upload to temp path %s: %w", tempPath, err)
	}
	defer c.cleanup(tempPath)

	return c.sudo(ctx,
		fmt.Sprintf("sudo mv %s %s", tempPath, remotePath),
		fmt.Sprintf("sudo chmod %o %s", info.Mode().Perm(), remotePath),
	)
}

func (c Client) sftpUpload(local *os.File, remotePath string, mode os.FileMode) error {
	if _, err := local.Seek(0, io.SeekStart); err != nil {
		return err
	}

	ftp, err := c.newSftp()
	if err != nil {
		return err
	}
	defer ftp.Close()

	remote, err := ftp.Create(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return err
	}
	return remote.Chmod(mode)
}

// Download copies remotePath to localPath, keeping the remote file mode.
// Unreadable files are first copied aside and handed to the login user
// with sudo.
func (c Client) Download(ctx context.Context, remotePath string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.sftpDownload(remotePath, localPath)
	if err == nil || !isPermissionDenied(err) {
		return err
	}

	tempPath := makeTempPath(remotePath)
	defer c.cleanup(tempPath)
	if err := c.sudo(ctx,
		fmt.Sprintf("sudo cp -p %s %s", remotePath, tempPath),
		fmt.Sprintf("sudo chown %s %s", c.User(), tempPath),
	); err != nil {
		return err
	}
	return c.sftpDownload(tempPath, localPath)
}

func (c Client) sftpDownload(remotePath string, localPath string) error {
	ftp, err := c.newSftp()
	if err != nil {
		return err
	}
	defer ftp.Close()

	remote, err := ftp.Open(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()

	info, err := remote.Stat()
	if err != nil {
		return err
	}

	local, err := os.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer local.Close()

	if _, err := io.Copy(local, remote); err != nil {
		return err
	}
	if err := local.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	return local.Sync()
}

// sudo runs cmds in order and stops at the first failure.
func (c Client) sudo(ctx context.Context, cmds ...string) error {
	for _, cmd := range cmds {
		if out, err := c.Run(ctx, cmd); err != nil {
			return fmt.Errorf("%q failed: %w, output: %s", cmd, err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

// cleanup removes a staging file. It runs after the caller's context may
// already be done.
func (c Client) cleanup(tempPath string) {
	_, _ = c.Run(context.Background(), fmt.Sprintf("sudo rm -f %s", tempPath))
}

func isPermissionDenied(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == uint32(sftp.ErrSshFxPermissionDenied) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "permission denied") || strings.Contains(errMsg, "ssh_fx_permission_denied")
}
