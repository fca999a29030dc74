// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when no API key can be resolved for
// the selected provider. Callers must not retry it.
var ErrMissingCredentials = errors.New("llm: missing API credentials")

// TransientError is a gateway failure worth retrying: HTTP 429, 5xx, or
// a network-level error.
type TransientError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: transient gateway error (HTTP %d): %s", e.Status, truncateForLog(e.Body))
	}
	return fmt.Sprintf("llm: transient gateway error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is a gateway failure that retrying cannot fix: any 4xx
// other than 429, or an unparseable response body.
type FatalError struct {
	Status int
	Body   string
}

func (e *FatalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm: gateway rejected request (HTTP %d): %s", e.Status, truncateForLog(e.Body))
	}
	return fmt.Sprintf("llm: gateway error: %s", truncateForLog(e.Body))
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func truncateForLog(s string) string {
	const max = 300
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
