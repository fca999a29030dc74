// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OpenAI-compatible chat wire, shared by the openai and groq providers.

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Body hint some providers put in 429 responses when no Retry-After
// header is present.
var retryHintRE = regexp.MustCompile(`(?i)try again in\s+([0-9.]+)s`)

func (c *Client) completeOpenAI(ctx context.Context, msgs []Message, opts ReqOpts) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	if opts.JSONMode {
		payload.ResponseFormat = &respFormat{Type: "json_object"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	delay := time.Duration(c.cfg.BackoffBaseMS) * time.Millisecond
	maxDelay := time.Duration(c.cfg.BackoffMaxMS) * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.throttle.Wait(ctx); err != nil {
			return "", err
		}
		text, retryIn, err := c.doChat(ctx, url, body)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
		if attempt == c.cfg.MaxRetries {
			break
		}
		wait := delay
		if retryIn > 0 {
			wait = retryIn
		}
		wait += time.Duration(rand.Int63n(int64(250 * time.Millisecond)))
		logf("gateway: attempt %d/%d failed (%v), retrying in %s", attempt, c.cfg.MaxRetries, err, wait)
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

// doChat performs one HTTP round trip. The retryIn value is the
// server-requested wait parsed from a 429 response, zero otherwise.
func (c *Client) doChat(ctx context.Context, url string, body []byte) (text string, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, &TransientError{Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", 0, &FatalError{Status: resp.StatusCode, Body: "unparseable response: " + string(respBody)}
		}
		if len(parsed.Choices) == 0 {
			return "", 0, &FatalError{Status: resp.StatusCode, Body: "empty choices: " + string(respBody)}
		}
		return parsed.Choices[0].Message.Content, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		// 5xx responses can carry Retry-After too; honor it either way.
		return "", parseRetryAfter(resp.Header.Get("Retry-After"), string(respBody)),
			&TransientError{Status: resp.StatusCode, Body: string(respBody)}
	default:
		return "", 0, &FatalError{Status: resp.StatusCode, Body: string(respBody)}
	}
}

// parseRetryAfter prefers the Retry-After header, then the "try again
// in Xs" body hint. Returns zero when neither is usable.
func parseRetryAfter(header, body string) time.Duration {
	if header != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		if t, err := http.ParseTime(header); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	if m := retryHintRE.FindStringSubmatch(body); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}
