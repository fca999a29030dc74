// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum gap between outbound gateway requests.
// It combines a proactive rate.Limiter with a mutex-guarded last-call
// timestamp so bursts from concurrent callers are serialized. The now
// and sleep hooks exist for tests.
type Throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
	limiter  *rate.Limiter

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewThrottle builds a throttle with the given minimum interval between
// calls. A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	t := &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	if interval > 0 {
		t.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return t
}

// Wait blocks until the next request is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return nil
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	t.mu.Lock()
	elapsed := t.now().Sub(t.last)
	wait := t.interval - elapsed
	if wait > 0 {
		t.mu.Unlock()
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
		t.mu.Lock()
	}
	t.last = t.now()
	t.mu.Unlock()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
