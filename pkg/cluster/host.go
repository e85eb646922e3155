// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package cluster

import "strings"

// RemoteHost identifies one reachable node of the cluster. On statically
// managed hosts there is no cloud indirection, so both addresses equal the
// hostname.
type RemoteHost struct {
	Name           string
	PublicAddress  string
	PrivateAddress string
}

func NewRemoteHost(hostname string) RemoteHost {
	return RemoteHost{
		Name:           hostname,
		PublicAddress:  hostname,
		PrivateAddress: hostname,
	}
}

// Matches reports whether the trimmed public address equals the trimmed addr.
func (h RemoteHost) Matches(addr string) bool {
	return strings.TrimSpace(h.PublicAddress) == strings.TrimSpace(addr)
}

func (h RemoteHost) String() string {
	return h.Name
}
