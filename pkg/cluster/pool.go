// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package cluster

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrEmptyPool     = errors.New("host pool is empty")
	ErrDuplicateHost = errors.New("duplicate host in pool")
	ErrSiteCount     = errors.New("site count out of range")
)

// Pool is the fixed, name-ordered set of hosts making up the cluster.
// The first siteCount hosts run H-Store sites, the rest run clients.
// A Pool is read-only once built.
type Pool struct {
	hosts     []RemoteHost
	siteCount int
}

// NewPool builds a Pool from hostnames, sorting the hosts by name.
func NewPool(hostnames []string, siteCount int) (*Pool, error) {
	if len(hostnames) == 0 {
		return nil, ErrEmptyPool
	}

	seen := make(map[string]struct{}, len(hostnames))
	hosts := make([]RemoteHost, 0, len(hostnames))
	for _, name := range hostnames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("host pool contains an empty hostname")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHost, name)
		}
		seen[name] = struct{}{}
		hosts = append(hosts, NewRemoteHost(name))
	}

	if siteCount < 0 || siteCount > len(hosts) {
		return nil, fmt.Errorf("%w: %d sites for %d hosts", ErrSiteCount, siteCount, len(hosts))
	}

	slices.SortStableFunc(hosts, func(a, b RemoteHost) int {
		return strings.Compare(a.Name, b.Name)
	})

	return &Pool{hosts: hosts, siteCount: siteCount}, nil
}

// All returns every configured host.
func (p *Pool) All() []RemoteHost {
	return slices.Clone(p.hosts)
}

// Running returns the active hosts. Static hosts are always considered
// running, so this is the full pool.
func (p *Pool) Running() []RemoteHost {
	return slices.Clone(p.hosts)
}

// Sites returns the first siteCount hosts.
func (p *Pool) Sites() []RemoteHost {
	return slices.Clone(p.hosts[:p.siteCount])
}

// Clients returns the hosts after the site partition.
func (p *Pool) Clients() []RemoteHost {
	return slices.Clone(p.hosts[p.siteCount:])
}

// Lookup returns the host whose public address matches addr after trimming.
func (p *Pool) Lookup(addr string) (RemoteHost, bool) {
	for _, h := range p.hosts {
		if h.Matches(addr) {
			return h, true
		}
	}
	return RemoteHost{}, false
}

func (p *Pool) Len() int {
	return len(p.hosts)
}

func (p *Pool) SiteCount() int {
	return p.siteCount
}

// Names returns the hostnames in pool order.
func (p *Pool) Names() []string {
	names := make([]string, len(p.hosts))
	for i, h := range p.hosts {
		names[i] = h.Name
	}
	return names
}
