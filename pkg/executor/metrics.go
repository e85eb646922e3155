// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hstore_fabric"

// Metrics counts remote operations per host. A nil *Metrics records nothing.
type Metrics struct {
	connections *prometheus.CounterVec
	commands    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_connections_total",
			Help:      "SSH connection attempts by host and outcome.",
		}, []string{"host", "outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_commands_total",
			Help:      "Remote commands and uploads by host and outcome.",
		}, []string{"host", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_command_duration_seconds",
			Help:      "Duration of remote commands and uploads.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"host"}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.commands, m.duration)
	}
	return m
}

func (m *Metrics) observeConnect(host string, err error) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(host, outcome(err)).Inc()
}

func (m *Metrics) observeCommand(host string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(host, outcome(err)).Inc()
	m.duration.WithLabelValues(host).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) ConnectionsCounter() *prometheus.CounterVec {
	return m.connections
}

func (m *Metrics) CommandsCounter() *prometheus.CounterVec {
	return m.commands
}
