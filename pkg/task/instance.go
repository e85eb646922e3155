// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/executor"
)

const (
	propertiesFile = "properties/default.properties"
	log4jFile      = "log4j.properties"
)

// Instance builds the per-host work of each cluster operation. The fabric
// asks for a fresh Task for every host it visits.
type Instance interface {
	Setup(build, update bool) Task
	WriteConf(project string, removals []string, revertFirst bool) Task
	ResetDebugging() Task
	EnableDebugging(debug, trace []string) Task
	ClearLogs() Task
	ArchiveLogs(archive string) Task
}

// HStore manages an H-Store checkout at BaseDir on each host.
type HStore struct {
	BaseDir    string
	Repository string
	Branch     string
	Profiles   map[string]map[string]string
	LogPaths   []string
}

func NewHStore(env config.Env) *HStore {
	return &HStore{
		BaseDir:    env.BaseDir(),
		Repository: env.Repository(),
		Branch:     env.Branch(),
		Profiles:   env.Profiles(),
		LogPaths:   env.LogPaths(),
	}
}

var _ Instance = &HStore{}

func (h *HStore) Setup(build, update bool) Task {
	dir := executor.ShellQuote(h.BaseDir)
	seq := &Sequence{Description: "Setup"}

	if h.Repository != "" {
		clone := "git clone"
		if h.Branch != "" {
			clone += " --branch " + executor.ShellQuote(h.Branch)
		}
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Clone H-Store checkout",
			Command: fmt.Sprintf("test -d %s || %s %s %s",
				executor.ShellQuote(path.Join(h.BaseDir, ".git")), clone, executor.ShellQuote(h.Repository), dir),
		})
	}
	if update {
		if h.Branch != "" {
			seq.Tasks = append(seq.Tasks, &CommandTask{
				Description: "Checkout branch",
				Command:     fmt.Sprintf("git -C %s checkout %s", dir, executor.ShellQuote(h.Branch)),
			})
		}
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Pull updates",
			Command:     fmt.Sprintf("git -C %s pull", dir),
		})
	}
	if build {
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Build H-Store",
			Command:     fmt.Sprintf("ant -f %s build", executor.ShellQuote(path.Join(h.BaseDir, "build.xml"))),
		})
	}
	return seq
}

func (h *HStore) WriteConf(project string, removals []string, revertFirst bool) Task {
	file := executor.ShellQuote(path.Join(h.BaseDir, propertiesFile))
	seq := &Sequence{Description: "WriteConf"}

	if revertFirst {
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Revert configuration",
			Command:     fmt.Sprintf("git -C %s checkout -- %s", executor.ShellQuote(h.BaseDir), propertiesFile),
		})
	}
	for _, key := range removals {
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Remove " + key,
			Command:     deleteKeyCommand(file, key),
		})
	}

	profile := h.Profiles[project]
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		seq.Tasks = append(seq.Tasks, &CommandTask{
			Description: "Set " + key,
			Command:     setKeyCommand(file, key, " = ", profile[key]),
		})
	}
	return seq
}

// ResetDebugging restores log4j.properties from the checkout, bringing back
// any level an earlier EnableDebugging replaced.
func (h *HStore) ResetDebugging() Task {
	return &CommandTask{
		Description: "Reset debugging",
		Command:     fmt.Sprintf("git -C %s checkout -- %s", executor.ShellQuote(h.BaseDir), log4jFile),
	}
}

func (h *HStore) EnableDebugging(debug, trace []string) Task {
	file := executor.ShellQuote(path.Join(h.BaseDir, log4jFile))
	seq := &Sequence{Description: "EnableDebugging"}

	add := func(targets []string, level string) {
		for _, target := range targets {
			seq.Tasks = append(seq.Tasks, &CommandTask{
				Description: fmt.Sprintf("Set %s to %s", target, level),
				Command:     setKeyCommand(file, "log4j.logger."+target, "=", level),
			})
		}
	}
	add(debug, "DEBUG")
	add(trace, "TRACE")
	return seq
}

func (h *HStore) ClearLogs() Task {
	seq := &Sequence{Description: "ClearLogs"}
	for _, p := range h.LogPaths {
		seq.Tasks = append(seq.Tasks, &removeTask{path: p})
	}
	return seq
}

// ArchiveLogs packs every log path into a gzipped tarball at archive. Paths
// that match nothing are skipped rather than failing the archive.
func (h *HStore) ArchiveLogs(archive string) Task {
	return &archiveTask{archive: archive, paths: h.LogPaths}
}

// deleteKeyCommand removes every "key = value" line from file.
func deleteKeyCommand(file, key string) string {
	expr := fmt.Sprintf(`/^%s[[:space:]]*=/d`, sedEscape(key))
	return fmt.Sprintf("sed -i %s %s", executor.ShellQuote(expr), file)
}

// sedEscape makes s match literally inside a sed basic regular expression
// delimited by slashes. Characters such as + ? ( ) { } | are already literal
// in a BRE and escaping them would turn them into GNU operators.
func sedEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.[]*^$/`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// setKeyCommand replaces any existing entry for key with key<sep>value.
func setKeyCommand(file, key, sep, value string) string {
	return fmt.Sprintf("%s && printf '%%s\\n' %s >> %s",
		deleteKeyCommand(file, key), executor.ShellQuote(key+sep+value), file)
}

// removeTask deletes a log path. Glob characters are left unquoted so the
// remote shell expands them.
type removeTask struct {
	path string
}

func (t *removeTask) Name() string {
	return "RemoveTask"
}

func (t *removeTask) Run(ctx context.Context, s executor.Session) (string, error) {
	if !safeLogPath(t.path) {
		return "", fmt.Errorf("refusing to remove unsafe log path %q", t.path)
	}
	cmd := &CommandTask{Description: "Remove " + t.path, Command: "rm -rf " + t.path}
	return cmd.Run(ctx, s)
}

type archiveTask struct {
	archive string
	paths   []string
}

func (t *archiveTask) Name() string {
	return "ArchiveTask"
}

func (t *archiveTask) Run(ctx context.Context, s executor.Session) (string, error) {
	if len(t.paths) == 0 {
		return "", fmt.Errorf("no log paths configured")
	}
	args := []string{"tar", "--ignore-failed-read", "-czf", executor.ShellQuote(t.archive)}
	for _, p := range t.paths {
		if !safeLogPath(p) {
			return "", fmt.Errorf("refusing to archive unsafe log path %q", p)
		}
		args = append(args, p)
	}
	cmd := &CommandTask{Description: "Archive logs to " + t.archive, Command: strings.Join(args, " ")}
	return cmd.Run(ctx, s)
}

func safeLogPath(p string) bool {
	return p != "" && p != "/" && strings.IndexFunc(p, unsafeGlobRune) < 0
}

func unsafeGlobRune(r rune) bool {
	if strings.ContainsRune("*?[]", r) {
		return false
	}
	return executor.ShellQuote(string(r)) != string(r)
}
