// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"
)

func (e Env) Hosts() []string {
	return stringSlice(e[KeyHosts])
}

func (e Env) BaseDir() string {
	return stringValue(e[KeyBaseDir])
}

// Repository is the git URL cloned into BaseDir on hosts lacking a checkout.
func (e Env) Repository() string {
	return stringValue(e[KeyRepository])
}

func (e Env) Branch() string {
	return stringValue(e[KeyBranch])
}

func (e Env) User() string {
	return stringValue(e[KeyUser])
}

func (e Env) Port() int {
	return intValue(e[KeyPort], 22)
}

func (e Env) Password() string {
	return stringValue(e[KeyPassword])
}

func (e Env) KeyFilename() string {
	return stringValue(e[KeyKeyFilename])
}

func (e Env) Passphrase() string {
	return stringValue(e[KeyPassphrase])
}

// HostKeyChecking is one of "interactive", "strict" or "off".
func (e Env) HostKeyChecking() string {
	return stringValue(e[KeyHostKeyChecking])
}

// Timeout is the SSH dial timeout, zero meaning the transport default.
func (e Env) Timeout() time.Duration {
	d, _ := durationValue(e[KeyTimeout])
	return d
}

func (e Env) SiteCount() int {
	return intValue(e[KeySiteCount], 1)
}

func (e Env) Parallelism() int {
	return intValue(e[KeyParallelism], 1)
}

func (e Env) ContinueOnError() bool {
	b, _ := boolValue(e[KeyContinueOnError])
	return b
}

// Profiles returns the named configuration profiles, each a set of
// key/value pairs written into the remote H-Store properties.
func (e Env) Profiles() map[string]map[string]string {
	profiles := make(map[string]map[string]string)
	raw, ok := e[KeyProfiles].(map[string]any)
	if !ok {
		if typed, ok := e[KeyProfiles].(map[string]map[string]string); ok {
			return typed
		}
		return profiles
	}
	for name, v := range raw {
		entries := make(map[string]string)
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				entries[k] = stringValue(val)
			}
		}
		profiles[name] = entries
	}
	return profiles
}

// LogPaths returns the remote log locations cleared by clear-logs.
func (e Env) LogPaths() []string {
	if paths := stringSlice(e[KeyLogs]); len(paths) > 0 {
		return paths
	}
	return []string{filepath.Join(e.BaseDir(), "obj", "logs", "*")}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// intValue returns def for a missing or malformed value. Validate reports
// the malformed ones.
func intValue(v any, def int) int {
	if v == nil {
		return def
	}
	n, err := parseInt(v)
	if err != nil {
		return def
	}
	return n
}

func parseInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func boolValue(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", b)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("unsupported type %T", v)
}

// durationValue reads a Go duration string or a number of seconds.
func durationValue(v any) (time.Duration, error) {
	switch d := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("%q is not a duration", d)
		}
		return parsed, nil
	}
	n, err := parseInt(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, stringValue(item))
		}
		return out
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	}
	return nil
}
