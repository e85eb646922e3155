// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmware/hstore-fabric/pkg/cliui"
	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/task"
)

// NewCommandExecute executes command against host(s)
// Runs command against single host if user selects specific host
// Runs command against all hosts if user selects all
func NewCommandExecute() *cobra.Command {
	var (
		userCmd string
		all     bool
		check   task.Check
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute command against host(s)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userCmd == "" {
				return errors.New("a command is required (-e)")
			}

			return withApp(cmd, func(a *app) error {
				targets := a.fabric.RunningInstances()
				if !all {
					selected, err := selectTargets(targets)
					if err != nil {
						return err
					}
					targets = selected
				}

				var c *task.Check
				if check.ExpectedOutput != "" || check.NotExpectedOutput != "" || check.TimeoutSec > 0 {
					c = &check
				}

				printLog("Executing command %q on %v", userCmd, hostOptions(targets))
				report, err := a.fabric.Exec(cmd.Context(), targets, userCmd, c)
				printReport(cmd.OutOrStdout(), report, true)
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&userCmd, "command", "e", "", "command to execute against target host(s)")
	flags.BoolVar(&all, "all", false, "run on every host without asking")
	flags.StringVar(&check.ExpectedOutput, "expect", "", "poll until the output contains this text")
	flags.StringVar(&check.NotExpectedOutput, "not-expect", "", "poll until the output no longer contains this text")
	flags.IntVar(&check.TimeoutSec, "timeout", 0, "polling timeout in seconds")
	return cmd
}

// selectTargets offers every host plus "all".
func selectTargets(hosts []cluster.RemoteHost) ([]cluster.RemoteHost, error) {
	options := append(hostOptions(hosts), "all")
	idx, _, err := cliui.Select("Select the host to execute the command on:", options)
	if err != nil {
		return nil, fmt.Errorf("no host selected: %w", err)
	}
	if idx == len(hosts) {
		return hosts, nil
	}
	return []cluster.RemoteHost{hosts[idx]}, nil
}
