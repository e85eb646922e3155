// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package sshtest provides an in-process SSH/SFTP server for tests. Exec
// requests are recorded and simulated against a root directory, SFTP is
// served from the same directory.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// DefaultReply is written to the exec channel for every command.
const DefaultReply = "HI, i am handled\n"

// Server is a local SSH server.
type Server struct {
	user     string
	password string
	rootDir  string
	listener net.Listener
	config   *ssh.ServerConfig
	hostKey  ssh.Signer

	mu               sync.Mutex
	running          bool
	executedCommands []string
	restrictedPaths  map[string]bool
	exitStatus       map[string]uint32
	replies          map[string]string
}

// NewServer creates a server accepting password auth for user/password and
// any public key for user. rootDir is created if missing.
func NewServer(user, password, rootDir string) (*Server, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to create host key signer: %w", err)
	}

	s := &Server{
		user:            user,
		password:        password,
		rootDir:         rootDir,
		hostKey:         signer,
		restrictedPaths: make(map[string]bool),
		exitStatus:      make(map[string]uint32),
		replies:         make(map[string]string),
	}

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.user && string(pass) == s.password {
				return nil, nil
			}
			return nil, fmt.Errorf("authentication failed")
		},
		PublicKeyCallback: func(c ssh.ConnMetadata, _ ssh.PublicKey) (*ssh.Permissions, error) {
			if c.User() == s.user {
				return nil, nil
			}
			return nil, fmt.Errorf("public key rejected for %q", c.User())
		},
	}
	s.config.AddHostKey(signer)

	return s, nil
}

// HostKeyCallback pins the server's generated host key.
func (s *Server) HostKeyCallback() ssh.HostKeyCallback {
	return ssh.FixedHostKey(s.hostKey.PublicKey())
}

// SetRestrictedPath makes SFTP access to path fail with permission denied.
func (s *Server) SetRestrictedPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restrictedPaths[path] = true
}

// SetExitStatus makes every command containing substr exit with code.
func (s *Server) SetExitStatus(substr string, code uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitStatus[substr] = code
}

// SetReply replaces DefaultReply for commands containing substr.
func (s *Server) SetReply(substr, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[substr] = reply
}

func (s *Server) ExecutedCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executedCommands...)
}

// Start listens on a random loopback port.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.running = true

	go s.acceptConnections()
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("server is not running")
	}
	s.running = false
	return s.listener.Close()
}

func (s *Server) RootDir() string {
	return s.rootDir
}

// Port returns the listening port once started.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isRunning() {
				return
			}
			log.Printf("Failed to accept connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.handleChannel(channel, requests)
	}
}

func (s *Server) handleChannel(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "exec":
			command := string(req.Payload[4:])
			go func() { _, _ = io.Copy(io.Discard, channel) }()

			s.mu.Lock()
			s.executedCommands = append(s.executedCommands, command)
			status, reply := uint32(0), DefaultReply
			for substr, code := range s.exitStatus {
				if strings.Contains(command, substr) {
					status = code
				}
			}
			for substr, r := range s.replies {
				if strings.Contains(command, substr) {
					reply = r
				}
			}
			s.mu.Unlock()

			s.simulate(command)

			_, _ = channel.Write([]byte(reply))
			_ = req.Reply(true, nil)
			payload := make([]byte, 4)
			binary.BigEndian.PutUint32(payload, status)
			_, _ = channel.SendRequest("exit-status", false, payload)
			return

		case "subsystem":
			if string(req.Payload[4:]) != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			restricted := make(map[string]bool, len(s.restrictedPaths))
			for k, v := range s.restrictedPaths {
				restricted[k] = v
			}
			s.mu.Unlock()

			h := &handlers{rootDir: s.rootDir, restrictedPaths: restricted}
			server := sftp.NewRequestServer(channel, sftp.Handlers{
				FileGet:  h,
				FilePut:  h,
				FileList: h,
				FileCmd:  h,
			})
			if err := server.Serve(); err != nil && err != io.EOF { //nolint:errorlint
				log.Printf("SFTP server error: %v", err)
			}
			return

		default:
			_ = req.Reply(false, nil)
		}
	}
}

// simulate applies the filesystem effect of the cp/mv/rm commands the
// client issues for its sudo fallbacks.
func (s *Server) simulate(command string) {
	parts := strings.Fields(command)
	if len(parts) > 0 && parts[0] == "sudo" {
		parts = parts[1:]
	}

	switch {
	case len(parts) >= 3 && parts[0] == "mv":
		dst := s.path(parts[2])
		_ = os.MkdirAll(filepath.Dir(dst), 0o755)
		_ = os.Rename(s.path(parts[1]), dst)
	case len(parts) >= 3 && parts[0] == "cp":
		srcIdx, dstIdx := 1, 2
		if parts[1] == "-p" {
			srcIdx, dstIdx = 2, 3
		}
		if len(parts) <= dstIdx {
			return
		}
		src, dst := s.path(parts[srcIdx]), s.path(parts[dstIdx])
		data, err := os.ReadFile(src)
		if err != nil {
			return
		}
		perm := os.FileMode(0o644)
		if info, err := os.Stat(src); err == nil {
			perm = info.Mode()
		}
		_ = os.MkdirAll(filepath.Dir(dst), 0o755)
		_ = os.WriteFile(dst, data, perm)
	case len(parts) >= 2 && parts[0] == "rm":
		for _, p := range parts[1:] {
			if !strings.HasPrefix(p, "-") {
				_ = os.Remove(s.path(p))
			}
		}
	}
}

func (s *Server) path(p string) string {
	return filepath.Join(s.rootDir, strings.Trim(p, "'"))
}

// WritePrivateKey stores a fresh client key in dir and returns its path.
func WritePrivateKey(dir string) (string, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", err
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "id_test")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
