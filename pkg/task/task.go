// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"

	"github.com/vmware/hstore-fabric/pkg/executor"
)

type Task interface {
	Name() string
	Run(ctx context.Context, s executor.Session) (string, error)
}

// Sequence runs its tasks in order on one session and stops at the first
// failure.
type Sequence struct {
	Description string
	Tasks       []Task
}

func (t *Sequence) Name() string {
	return t.Description
}

func (t *Sequence) Run(ctx context.Context, s executor.Session) (string, error) {
	var out string
	for _, sub := range t.Tasks {
		o, err := sub.Run(ctx, s)
		out += o
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
