// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vmware/hstore-fabric/pkg/cliui"
	"github.com/vmware/hstore-fabric/pkg/cluster"
	"github.com/vmware/hstore-fabric/pkg/config"
	"github.com/vmware/hstore-fabric/pkg/executor"
	"github.com/vmware/hstore-fabric/pkg/fabric"
	"github.com/vmware/hstore-fabric/pkg/plan"
)

func printLog(format string, v ...any) {
	if verbose {
		log.Printf(format, v...)
	}
}

// fabricOptions are applied after the defaults of every fabric the CLI builds.
var fabricOptions []fabric.Option

// app holds what a subcommand needs for one run against the cluster.
type app struct {
	fabric   *fabric.SSHFabric
	log      logr.Logger
	registry *prometheus.Registry
	sync     func() error
}

// withApp builds the fabric from the config file and flags, runs fn and
// then flushes logs and metrics.
func withApp(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, a.close())
	}()
	return fn(a)
}

func newApp(cmd *cobra.Command) (*app, error) {
	logger, sync, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := append([]fabric.Option{
		fabric.WithLogger(logger),
		fabric.WithMetrics(executor.NewMetrics(registry)),
	}, fabricOptions...)
	f, err := fabric.New(env, opts...)
	if err != nil {
		return nil, err
	}

	printLog("Host pool: %v, sites: %d", env.Hosts(), env.SiteCount())
	return &app{fabric: f, log: logger, registry: registry, sync: sync}, nil
}

func (a *app) close() error {
	var err error
	if metricsFile != "" {
		if werr := prometheus.WriteToTextfile(metricsFile, a.registry); werr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to write metrics to %s: %w", metricsFile, werr))
		}
	}
	// syncing a terminal stderr reports EINVAL on some platforms
	_ = a.sync()
	return err
}

func newLogger(verbose bool) (logr.Logger, func() error, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(z), z.Sync, nil
}

// loadEnv layers the config file and any flags set on the command line.
// A missing default config file is not an error.
func loadEnv(cmd *cobra.Command) (config.Env, error) {
	path := configFile
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	env, err := config.Load(path, flagOverrides(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configFile, err)
	}
	return env, nil
}

func flagOverrides(cmd *cobra.Command) config.Env {
	flags := cmd.Flags()
	overrides := config.Env{}
	if flags.Changed("hosts") {
		overrides[config.KeyHosts] = hosts
	}
	if flags.Changed("parallel") {
		overrides[config.KeyParallelism] = parallel
	}
	if flags.Changed("continue-on-error") {
		overrides[config.KeyContinueOnError] = continueOnError
	}
	if flags.Changed("site-count") {
		overrides[config.KeySiteCount] = siteCount
	}
	if flags.Changed("host-key-checking") {
		overrides[config.KeyHostKeyChecking] = hostKeyChecking
	}
	return overrides
}

func hostOptions(hosts []cluster.RemoteHost) []string {
	options := make([]string, 0, len(hosts))
	for _, h := range hosts {
		options = append(options, fmt.Sprintf("%s (%s)", h.Name, h.PublicAddress))
	}
	return options
}

func selectHost(hosts []cluster.RemoteHost, msg string) (cluster.RemoteHost, error) {
	idx, _, err := cliui.Select(msg, hostOptions(hosts))
	if err != nil {
		return cluster.RemoteHost{}, fmt.Errorf("no host selected: %w", err)
	}
	return hosts[idx], nil
}

// printReport writes one line per host and, when withOutput is set, the
// command output of each attempted host.
func printReport(w io.Writer, report *plan.Report, withOutput bool) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		switch {
		case res.Skipped:
			fmt.Fprintf(w, "%s: skipped\n", res.Host)
		case res.Err != nil:
			fmt.Fprintf(w, "%s: failed: %v\n", res.Host, res.Err)
		default:
			fmt.Fprintf(w, "%s: ok\n", res.Host)
		}
		if withOutput && !res.Skipped && res.Output != "" {
			fmt.Fprintf(w, "output:\n %s\n", res.Output)
		}
	}
}
