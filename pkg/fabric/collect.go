// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package fabric

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/plan"
)

// CollectLogs archives the log paths of every running host and downloads
// each archive to localDir/<host>-logs.tar.gz. The remote archive is removed
// once it has been fetched. Each host's result output is the local path.
func (f *SSHFabric) CollectLogs(ctx context.Context, localDir string) (*plan.Report, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", localDir, err)
	}

	f.log.Info("Collecting logs", "dir", localDir, "hosts", len(f.pool.Running()))

	report := plan.Dispatch(ctx, "CollectLogs", f.pool.Running(), f.options, func(ctx context.Context, h cluster.RemoteHost) (string, error) {
		remote := fmt.Sprintf("/tmp/hstore-fabric-%s-logs.tar.gz", h.Name)
		local := filepath.Join(localDir, h.Name+"-logs.tar.gz")

		err := executor.WithSession(ctx, f.dialer, h, func(s executor.Session) error {
			if _, err := f.instance.ArchiveLogs(remote).Run(ctx, s); err != nil {
				return err
			}
			defer func() {
				if _, err := s.Run(ctx, "rm -f "+executor.ShellQuote(remote)); err != nil {
					f.log.Error(err, "Failed to remove remote log archive", "host", h.Name, "path", remote)
				}
			}()
			return s.Download(ctx, remote, local)
		})
		if err != nil {
			return "", err
		}
		return local, nil
	})
	if err := report.Err(); err != nil {
		return report, fmt.Errorf("CollectLogs failed: %w", err)
	}
	return report, nil
}
