// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executor

import "fmt"

// ConnectionError reports that no session could be established to Host.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteExecutionError reports a remote command that exited non-zero or a
// remote operation that otherwise failed. ExitStatus is -1 when the command
// did not report one.
type RemoteExecutionError struct {
	Host       string
	Command    string
	ExitStatus int
	Output     string
	Err        error
}

func (e *RemoteExecutionError) Error() string {
	if e.ExitStatus >= 0 {
		return fmt.Sprintf("command %q on %s exited with status %d: %s", e.Command, e.Host, e.ExitStatus, e.Output)
	}
	return fmt.Sprintf("command %q on %s failed: %v", e.Command, e.Host, e.Err)
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.Err
}
