// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package sshtest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
)

// handlers serves SFTP requests from rootDir.
type handlers struct {
	rootDir         string
	restrictedPaths map[string]bool
}

func (h *handlers) restricted(p string) bool {
	return h.restrictedPaths[p] || h.restrictedPaths[strings.TrimPrefix(p, "/")]
}

func (h *handlers) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	if h.restricted(r.Filepath) {
		return nil, &sftp.StatusError{Code: uint32(sftp.ErrSshFxPermissionDenied)}
	}
	return os.Open(filepath.Join(h.rootDir, r.Filepath))
}

func (h *handlers) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	if h.restricted(r.Filepath) {
		return nil, &sftp.StatusError{Code: uint32(sftp.ErrSshFxPermissionDenied)}
	}

	path := filepath.Join(h.rootDir, r.Filepath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

func (h *handlers) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	path := filepath.Join(h.rootDir, r.Filepath)

	switch r.Method {
	case "List":
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var infos []os.FileInfo
		for _, entry := range entries {
			if info, err := entry.Info(); err == nil {
				infos = append(infos, info)
			}
		}
		return listerat(infos), nil
	case "Stat":
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		return listerat([]os.FileInfo{info}), nil
	default:
		return nil, fmt.Errorf("unsupported list command: %s", r.Method)
	}
}

func (h *handlers) Filecmd(r *sftp.Request) error {
	path := filepath.Join(h.rootDir, r.Filepath)

	switch r.Method {
	case "Remove", "Rmdir":
		return os.Remove(path)
	case "Rename":
		return os.Rename(path, filepath.Join(h.rootDir, r.Target))
	case "Mkdir":
		return os.Mkdir(path, 0o755)
	case "Setstat":
		return nil
	default:
		return fmt.Errorf("unsupported file command: %s", r.Method)
	}
}

type listerat []os.FileInfo

func (l listerat) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}

	n := copy(ls, l[offset:])
	if n < len(ls) {
		return n, io.EOF
	}
	return n, nil
}
