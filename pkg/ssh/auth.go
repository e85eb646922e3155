// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

var ErrNoCredentials = errors.New("no password, private key or ssh-agent found to configure SSH auth")

// Auth holds the methods offered during the handshake. Close releases the
// agent connection, if any, once the handshake is over.
type Auth struct {
	Methods []ssh.AuthMethod
	closer  io.Closer
}

func (a Auth) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func configureAuth(password, privateKeyFile, passphrase string) (Auth, error) {
	switch {
	case password != "":
		return Password(password), nil
	case privateKeyFile != "":
		return PrivateKey(privateKeyFile, passphrase)
	default:
		return Agent(os.Getenv("SSH_AUTH_SOCK"))
	}
}

func Password(pass string) Auth {
	return Auth{Methods: []ssh.AuthMethod{ssh.Password(pass)}}
}

// PrivateKey loads a key file, decrypting it when passphrase is set.
func PrivateKey(prvFile string, passphrase string) (Auth, error) {
	data, err := os.ReadFile(prvFile)
	if err != nil {
		return Auth{}, fmt.Errorf("could not read private key: %w", err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}
	if err != nil {
		return Auth{}, fmt.Errorf("could not parse private key %s: %w", prvFile, err)
	}
	return Auth{Methods: []ssh.AuthMethod{ssh.PublicKeys(signer)}}, nil
}

// Agent offers the keys held by the ssh-agent listening on socket.
func Agent(socket string) (Auth, error) {
	if socket == "" {
		return Auth{}, ErrNoCredentials
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return Auth{}, fmt.Errorf("%w: cannot reach ssh-agent at %s: %w", ErrNoCredentials, socket, err)
	}
	client := agent.NewClient(conn)
	return Auth{
		Methods: []ssh.AuthMethod{ssh.PublicKeysCallback(client.Signers)},
		closer:  conn,
	}, nil
}
