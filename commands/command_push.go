// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vmware/hstore-fabric/pkg/artifact"
)

// NewCommandPush uploads a local file, or an artifact fetched from S3, to
// every host. Without --dest the file lands in the H-Store base directory.
func NewCommandPush() *cobra.Command {
	var (
		file, dest string
		s3URI      string
		s3Opts     artifact.Options
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload a local file or S3 artifact to every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (s3URI == "") {
				return errors.New("exactly one of --file or --s3 must be set")
			}

			return withApp(cmd, func(a *app) error {
				local := file
				if s3URI != "" {
					dir, err := os.MkdirTemp("", "hstore-fabric-artifact-")
					if err != nil {
						return err
					}
					defer os.RemoveAll(dir)

					fetcher, err := artifact.NewS3Fetcher(cmd.Context(), s3Opts)
					if err != nil {
						return err
					}
					printLog("Fetching %s", s3URI)
					if local, err = fetcher.Fetch(cmd.Context(), s3URI, dir); err != nil {
						return err
					}
				}

				target := dest
				if target == "" {
					target = path.Join(a.fabric.Env().BaseDir(), filepath.Base(local))
				}

				report, err := a.fabric.PushFile(cmd.Context(), local, target)
				printReport(cmd.OutOrStdout(), report, false)
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "local file to upload")
	flags.StringVar(&dest, "dest", "", "remote destination path")
	flags.StringVar(&s3URI, "s3", "", "fetch the file from s3://bucket/key instead")
	flags.StringVar(&s3Opts.Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	flags.StringVar(&s3Opts.Region, "s3-region", "", "S3 region")
	flags.BoolVar(&s3Opts.PathStyle, "s3-path-style", false, "use path-style bucket addressing")
	return cmd
}
