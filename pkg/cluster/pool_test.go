// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPoolSortsByName(t *testing.T) {
	pool, err := NewPool([]string{"b.example.com", "a.example.com"}, 1)
	require.NoError(t, err)

	require.Equal(t, []string{"a.example.com", "b.example.com"}, pool.Names())
	require.Equal(t, 2, pool.Len())
	require.Len(t, pool.All(), 2)

	require.Equal(t, []RemoteHost{NewRemoteHost("a.example.com")}, pool.Sites())
	require.Equal(t, []RemoteHost{NewRemoteHost("b.example.com")}, pool.Clients())
}

func TestPoolPartition(t *testing.T) {
	hostnames := []string{"h5", "h3", "h1", "h4", "h2"}

	for siteCount := 0; siteCount <= len(hostnames); siteCount++ {
		pool, err := NewPool(hostnames, siteCount)
		require.NoError(t, err)

		sites := pool.Sites()
		clients := pool.Clients()
		require.Len(t, sites, siteCount)
		require.Len(t, clients, len(hostnames)-siteCount)
		require.Equal(t, pool.All(), append(sites, clients...))
	}
}

func TestNewPoolErrors(t *testing.T) {
	_, err := NewPool(nil, 0)
	require.ErrorIs(t, err, ErrEmptyPool)

	_, err = NewPool([]string{"a", "b", "a"}, 1)
	require.ErrorIs(t, err, ErrDuplicateHost)

	_, err = NewPool([]string{"a", "b"}, 3)
	require.ErrorIs(t, err, ErrSiteCount)

	_, err = NewPool([]string{"a"}, -1)
	require.ErrorIs(t, err, ErrSiteCount)

	_, err = NewPool([]string{"a", "  "}, 0)
	require.Error(t, err)
}

func TestPoolLookup(t *testing.T) {
	pool, err := NewPool([]string{"istc3.csail.mit.edu", "istc4.csail.mit.edu"}, 1)
	require.NoError(t, err)

	h, ok := pool.Lookup("  istc4.csail.mit.edu\n")
	require.True(t, ok)
	require.Equal(t, "istc4.csail.mit.edu", h.Name)

	_, ok = pool.Lookup("ISTC4.csail.mit.edu")
	require.False(t, ok)

	_, ok = pool.Lookup("istc5.csail.mit.edu")
	require.False(t, ok)
}

func TestPoolQueriesAreIdempotent(t *testing.T) {
	pool, err := NewPool([]string{"c", "a", "b"}, 2)
	require.NoError(t, err)

	first := pool.All()
	first[0] = NewRemoteHost("mutated")

	require.Equal(t, pool.All(), pool.All())
	require.Equal(t, []string{"a", "b", "c"}, pool.Names())
	require.Equal(t, pool.All(), pool.Running())
}

func TestRemoteHostAddresses(t *testing.T) {
	h := NewRemoteHost("node1")
	require.Equal(t, "node1", h.PublicAddress)
	require.Equal(t, "node1", h.PrivateAddress)
	require.True(t, h.Matches(" node1 "))
	require.Equal(t, "node1", h.String())
}
