// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrInvalidOption = errors.New("invalid option")

// Validate reports every option whose value cannot be read as its type.
// Accessors fall back to their defaults for such values, so callers that
// did not go through Load should validate first.
func (e Env) Validate() error {
	var err error
	invalid := func(key string, cause error) {
		err = multierr.Append(err, fmt.Errorf("%w %s: %w", ErrInvalidOption, key, cause))
	}

	checkInt := func(key string, lo, hi int) {
		v, ok := e[key]
		if !ok || v == nil {
			return
		}
		n, perr := parseInt(v)
		switch {
		case perr != nil:
			invalid(key, perr)
		case n < lo || (hi > 0 && n > hi):
			invalid(key, fmt.Errorf("%d is out of range", n))
		}
	}
	checkInt(KeyPort, 1, 65535)
	checkInt(KeySiteCount, 0, 0)
	checkInt(KeyParallelism, 1, 0)

	if _, berr := boolValue(e[KeyContinueOnError]); berr != nil {
		invalid(KeyContinueOnError, berr)
	}
	if d, derr := durationValue(e[KeyTimeout]); derr != nil {
		invalid(KeyTimeout, derr)
	} else if d < 0 {
		invalid(KeyTimeout, fmt.Errorf("%s is negative", d))
	}
	return err
}
