// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package version

var (
	Version = "0.1.0"

	// GitSHA is set with -ldflags "-X github.com/vmware/hstore-fabric/version.GitSHA=..."
	GitSHA = "Not provided"
)
