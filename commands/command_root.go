// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/vmware/hstore-fabric/pkg/config"
)

const (
	cliName        = "hstore-fabric"
	cliDescription = "A tool to deploy and manage an H-Store cluster on a fixed pool of SSH hosts"
)

var (
	configFile      string
	verbose         bool
	hosts           []string
	parallel        int
	continueOnError bool
	siteCount       int
	hostKeyChecking string
	metricsFile     string
)

// NewRootCmd builds the command tree. Binding the persistent flags resets
// their variables to the flag defaults.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           cliName,
		Short:         cliDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", config.DefaultConfigFilename, "path to the cluster config file (YAML or JSON)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.StringSliceVar(&hosts, "hosts", nil, "override the configured host pool")
	flags.IntVarP(&parallel, "parallel", "p", 1, "number of hosts worked on concurrently")
	flags.BoolVar(&continueOnError, "continue-on-error", false, "keep going on the remaining hosts after a host fails")
	flags.IntVar(&siteCount, "site-count", 1, "number of hosts, in sorted order, that run H-Store sites")
	flags.StringVar(&hostKeyChecking, "host-key-checking", "", "host key checking mode: interactive, strict or off")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")

	rootCmd.AddCommand(
		NewCommandVersion(),
		NewCommandDeploy(),
		NewCommandWriteConf(),
		NewCommandDebug(),
		NewCommandClearLogs(),
		NewCommandCollectLogs(),
		NewCommandDistribute(),
		NewCommandPush(),
		NewCommandExecute(),
		NewCommandInstances(),
	)
	return rootCmd
}

func RootCmd() *cobra.Command {
	return NewRootCmd()
}
