// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	ErrHostKeyRejected = errors.New("host key verification cancelled by user")
	ErrHostKeyChanged  = errors.New("remote host identification has changed")
)

// InteractiveHostKeyCallback checks host keys against knownHostsPath and
// asks on stdin before trusting an unknown host. Accepted keys are appended
// to the file, so a host is asked about at most once.
func InteractiveHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	p, err := newHostKeyPrompter(knownHostsPath, os.Stdin, os.Stderr)
	if err != nil {
		return nil, err
	}
	return p.check, nil
}

// promptMu serializes checks of every prompter: hosts are dialed
// concurrently but share one terminal and one known_hosts file.
var promptMu sync.Mutex

type hostKeyPrompter struct {
	path string
	in   *bufio.Reader
	out  io.Writer
}

func newHostKeyPrompter(knownHostsPath string, in io.Reader, out io.Writer) (*hostKeyPrompter, error) {
	if err := ensureKnownHostsFile(knownHostsPath); err != nil {
		return nil, fmt.Errorf("failed to ensure known_hosts file exists: %w", err)
	}
	return &hostKeyPrompter{path: knownHostsPath, in: bufio.NewReader(in), out: out}, nil
}

func (p *hostKeyPrompter) check(hostname string, remote net.Addr, key ssh.PublicKey) error {
	promptMu.Lock()
	defer promptMu.Unlock()

	// re-read on every call to see keys accepted by earlier prompts
	err := p.lookup(hostname, remote, key)
	if err == nil {
		return nil
	}

	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		return err
	}
	if len(keyErr.Want) > 0 {
		return fmt.Errorf("%w for %s (%s key fingerprint is %s), see %s:%d",
			ErrHostKeyChanged, hostname, key.Type(), ssh.FingerprintSHA256(key), keyErr.Want[0].Filename, keyErr.Want[0].Line)
	}
	return p.prompt(hostname, remote, key)
}

func (p *hostKeyPrompter) lookup(hostname string, remote net.Addr, key ssh.PublicKey) error {
	callback, err := knownhosts.New(p.path)
	if err != nil {
		// an unreadable file is treated as holding no keys
		return &knownhosts.KeyError{}
	}

	// known_hosts entries for non-default ports carry the port
	if tcpAddr, ok := remote.(*net.TCPAddr); ok && !strings.Contains(hostname, ":") {
		hostname = net.JoinHostPort(hostname, fmt.Sprint(tcpAddr.Port))
	}
	return callback(hostname, remote, key)
}

func (p *hostKeyPrompter) prompt(hostname string, remote net.Addr, key ssh.PublicKey) error {
	fp := ssh.FingerprintSHA256(key)
	fmt.Fprintf(p.out, "\nThe authenticity of host '%s (%s)' can't be established.\n", hostname, remote)
	fmt.Fprintf(p.out, "%s key fingerprint is %s.\n", key.Type(), fp)
	fmt.Fprint(p.out, "Are you sure you want to continue connecting (yes/no/[fingerprint])? ")

	response, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || response == "") {
		return fmt.Errorf("failed to read user input: %w", err)
	}

	answer := strings.TrimSpace(response)
	if !strings.EqualFold(answer, "yes") && !strings.EqualFold(answer, "y") && answer != fp {
		return ErrHostKeyRejected
	}

	if err := addHostKeyToKnownHosts(hostname, remote, key, p.path); err != nil {
		return fmt.Errorf("failed to add host key to known_hosts: %w", err)
	}
	fmt.Fprintf(p.out, "Warning: Permanently added '%s' (%s) to the list of known hosts.\n", hostname, key.Type())
	return nil
}


// addHostKeyToKnownHosts appends an entry for hostname and, when it
// differs, the remote IP. Non-default ports are recorded with the entry.
func addHostKeyToKnownHosts(hostname string, remote net.Addr, key ssh.PublicKey, knownHostsPath string) error {
	addresses := []string{hostname}
	if tcpAddr, ok := remote.(*net.TCPAddr); ok {
		port := fmt.Sprint(tcpAddr.Port)
		addresses[0] = net.JoinHostPort(hostname, port)
		if ip := tcpAddr.IP.String(); ip != hostname {
			addresses = append(addresses, net.JoinHostPort(ip, port))
		}
	}

	file, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts file: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, knownhosts.Line(addresses, key)); err != nil {
		return fmt.Errorf("failed to write to known_hosts file: %w", err)
	}
	return nil
}

func ensureKnownHostsFile(knownHostsPath string) error {
	if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0o700); err != nil {
		return fmt.Errorf("failed to create .ssh directory: %w", err)
	}

	file, err := os.OpenFile(knownHostsPath, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create known_hosts file: %w", err)
	}
	return file.Close()
}
