// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

const DefaultConfigFilename = "hosts.yaml"

// Option names understood by the fabric.
const (
	KeyHosts           = "ssh.hosts"
	KeyUser            = "ssh.user"
	KeyPort            = "ssh.port"
	KeyPassword        = "ssh.password"
	KeyKeyFilename     = "ssh.key_filename"
	KeyPassphrase      = "ssh.passphrase"
	KeyTimeout         = "ssh.timeout"
	KeyHostKeyChecking = "ssh.host_key_checking"
	KeyBaseDir         = "hstore.basedir"
	KeyRepository      = "hstore.git"
	KeyBranch          = "hstore.git_branch"
	KeyProfiles        = "hstore.profiles"
	KeyLogs            = "hstore.logs"
	KeySiteCount       = "site.count"
	KeyParallelism     = "fabric.parallelism"
	KeyContinueOnError = "fabric.continue_on_error"
)

// Env maps option names to values. Callers build one with Load or Merge and
// treat it as read-only afterwards.
type Env map[string]any

// Defaults returns the default environment. The base directory defaults to
// the parent of the working directory with symlinks resolved.
func Defaults() Env {
	basedir, err := filepath.Abs("..")
	if err != nil {
		basedir = ".."
	}
	if resolved, err := filepath.EvalSymlinks(basedir); err == nil {
		basedir = resolved
	}
	return Env{
		KeyHosts:     []string{"istc4.csail.mit.edu", "istc3.csail.mit.edu"},
		KeyBaseDir:   basedir,
		KeyUser:      os.Getenv("USER"),
		KeyPort:      22,
		KeySiteCount: 1,
	}
}

// Merge returns a new Env holding every key of defaults, overridden by the
// keys of overrides. Neither input is modified.
func Merge(defaults, overrides Env) Env {
	merged := make(Env, len(defaults)+len(overrides))
	maps.Copy(merged, defaults)
	maps.Copy(merged, overrides)
	return merged
}

// ParseFile reads a flat option mapping from a YAML or JSON file.
func ParseFile(path string) (Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %w", err)
	}

	var env Env
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if env == nil {
		env = Env{}
	}
	return env, nil
}

// Load layers the file at path (if non-empty) and overrides on top of the
// defaults, then validates the result.
func Load(path string, overrides Env) (Env, error) {
	env := Defaults()
	if path != "" {
		fileEnv, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		env = Merge(env, fileEnv)
	}
	env = Merge(env, overrides)
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}
