// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmware/hstore-fabric/pkg/cluster"
)

func NewCommandInstances() *cobra.Command {
	var (
		sites, clients bool
		lookup         string
	)

	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List the hosts of the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				out := cmd.OutOrStdout()
				if lookup != "" {
					h, ok := a.fabric.Instance(lookup)
					if !ok {
						return fmt.Errorf("no host with address %q", lookup)
					}
					fmt.Fprintf(out, "%s\t%s\n", h.Name, h.PublicAddress)
					return nil
				}

				var list []cluster.RemoteHost
				switch {
				case sites:
					list = a.fabric.RunningSiteInstances()
				case clients:
					list = a.fabric.RunningClientInstances()
				default:
					list = a.fabric.AllInstances()
				}

				siteCount := len(a.fabric.RunningSiteInstances())
				for i, h := range list {
					role := "client"
					if sites || (!clients && i < siteCount) {
						role = "site"
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", h.Name, h.PublicAddress, role)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&sites, "sites", false, "only hosts running H-Store sites")
	cmd.Flags().BoolVar(&clients, "clients", false, "only hosts running clients")
	cmd.Flags().StringVar(&lookup, "lookup", "", "find the host with this address")
	cmd.MarkFlagsMutuallyExclusive("sites", "clients", "lookup")
	return cmd
}
