// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"google.golang.org/genai"
)

func (c *Client) completeGemini(ctx context.Context, msgs []Message, opts ReqOpts) (string, error) {
	system, user := splitSystem(msgs)
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(c.cfg.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	delay := time.Duration(c.cfg.BackoffBaseMS) * time.Millisecond
	maxDelay := time.Duration(c.cfg.BackoffMaxMS) * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.throttle.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, contents, cfg)
		if err == nil {
			text := resp.Text()
			if text == "" {
				return "", &FatalError{Body: "empty gemini completion"}
			}
			return text, nil
		}
		if !geminiTransient(err) {
			return "", &FatalError{Body: err.Error()}
		}
		lastErr = err
		if attempt == c.cfg.MaxRetries {
			break
		}
		wait := delay + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
		logf("gateway: gemini attempt %d/%d failed (%v), retrying in %s", attempt, c.cfg.MaxRetries, err, wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return "", err
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return "", fmt.Errorf("llm: retries exhausted after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func geminiTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	// Network-level failures carry no status code; retry them.
	return true
}
