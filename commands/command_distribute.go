// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmware/hstore-fabric/pkg/cluster"
)

// NewCommandDistribute copies a file that already exists on one host to
// the same path on every other host. The origin is asked for when
// --origin is not given.
func NewCommandDistribute() *cobra.Command {
	var file, origin string

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Copy a file from one host to all the others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				var (
					src cluster.RemoteHost
					err error
				)
				if origin != "" {
					var ok bool
					if src, ok = a.fabric.Instance(origin); !ok {
						return fmt.Errorf("origin %q is not in the host pool %v", origin, hostOptions(a.fabric.AllInstances()))
					}
				} else {
					src, err = selectHost(a.fabric.RunningInstances(), "Select the host that holds the file:")
					if err != nil {
						return err
					}
				}

				printLog("Distributing %s from %s (%s)", file, src.Name, src.PublicAddress)
				report, err := a.fabric.DistributeFile(cmd.Context(), src, file)
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "absolute path of the file on the origin host")
	cmd.Flags().StringVar(&origin, "origin", "", "address of the host that holds the file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
