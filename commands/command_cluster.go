// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommandDeploy checks out H-Store on every host, optionally pulling
// updates and rebuilding it.
func NewCommandDeploy() *cobra.Command {
	var build, update bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy H-Store to every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				printLog("Deploying H-Store (build=%t, update=%t)", build, update)
				report, err := a.fabric.DeployHStore(cmd.Context(), build, update)
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&build, "build", false, "rebuild H-Store after checkout")
	cmd.Flags().BoolVar(&update, "update", false, "pull the latest changes before building")
	return cmd
}

func NewCommandWriteConf() *cobra.Command {
	var (
		project  string
		removals []string
		revert   bool
	)

	cmd := &cobra.Command{
		Use:   "write-conf",
		Short: "Write a project's configuration profile on every host",
		Long: `Write the H-Store properties of a project profile on every host.
Keys listed with --remove are deleted first. With --revert the properties
file is restored from the checkout before anything else.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if _, ok := a.fabric.Env().Profiles()[project]; !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "No configuration profile for project %s, only removals are applied\n", project)
				}
				report, err := a.fabric.WriteConf(cmd.Context(), project, removals, revert)
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project whose profile is written")
	cmd.Flags().StringSliceVar(&removals, "remove", nil, "property keys to delete")
	cmd.Flags().BoolVar(&revert, "revert", false, "revert the properties file before writing")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// NewCommandClearLogs removes the H-Store logs on every host. With --collect
// the logs are first downloaded, and nothing is removed if that fails.
func NewCommandClearLogs() *cobra.Command {
	var collectDir string

	cmd := &cobra.Command{
		Use:   "clear-logs",
		Short: "Remove H-Store logs on every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if collectDir != "" {
					report, err := a.fabric.CollectLogs(cmd.Context(), collectDir)
					printReport(cmd.OutOrStdout(), report, true)
					if err != nil {
						return fmt.Errorf("logs were not cleared: %w", err)
					}
				}
				report, err := a.fabric.ClearLogs(cmd.Context())
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&collectDir, "collect", "", "download the logs into this directory before removing them")
	return cmd
}

func NewCommandCollectLogs() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "collect-logs",
		Short: "Download the H-Store logs of every host",
		Long: `Archive the H-Store logs on every host and download each archive
as <dir>/<host>-logs.tar.gz. The remote logs are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				report, err := a.fabric.CollectLogs(cmd.Context(), dir)
				printReport(cmd.OutOrStdout(), report, true)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "logs", "local directory the archives are written to")
	return cmd
}

// NewCommandDebug groups the log4j level commands.
func NewCommandDebug() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Manage H-Store debug logging",
	}
	cmd.AddCommand(newCommandDebugEnable(), newCommandDebugReset())
	return cmd
}

func newCommandDebugEnable() *cobra.Command {
	var debug, trace []string

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Raise loggers to DEBUG or TRACE on every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				report, err := a.fabric.EnableDebugging(cmd.Context(), debug, trace)
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&debug, "debug", nil, "loggers set to DEBUG")
	cmd.Flags().StringSliceVar(&trace, "trace", nil, "loggers set to TRACE")
	return cmd
}

func newCommandDebugReset() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore log4j.properties from the checkout on every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				report, err := a.fabric.ResetDebugging(cmd.Context())
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
}
