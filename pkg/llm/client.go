// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

// Package llm is the text-completion gateway used by the builder. It
// speaks the OpenAI-compatible chat wire (groq, openai) and Gemini via
// the genai SDK, with proactive throttling and retry on transient
// failures.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Chat message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Supported providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// ReqOpts tunes a single completion request.
type ReqOpts struct {
	// JSONMode asks the provider to emit a JSON object.
	JSONMode bool
	// MaxTokens caps the completion length. Zero means the provider
	// default from Config.
	MaxTokens int
}

// Gateway is the completion surface the builder depends on. Tests swap
// in fakes; production uses *Client.
type Gateway interface {
	Complete(ctx context.Context, msgs []Message, opts ReqOpts) (string, error)
	CompleteJSON(ctx context.Context, msgs []Message) (map[string]any, error)
}

// Config selects the provider and its knobs. Zero values fall back to
// the defaults applied by applyDefaults.
type Config struct {
	Provider      string  `yaml:"provider"`
	Model         string  `yaml:"model"`
	BaseURL       string  `yaml:"base_url"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	MaxRetries    int     `yaml:"max_retries"`
	BackoffBaseMS int     `yaml:"backoff_base_ms"`
	BackoffMaxMS  int     `yaml:"backoff_max_ms"`
	ThrottleMS    int     `yaml:"throttle_ms"`
	TimeoutSec    int     `yaml:"timeout_sec"`
	MaxInputChars int     `yaml:"max_input_chars"`

	// APIKey is resolved from the environment, never from YAML.
	APIKey string `yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderGroq
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.Model = "gpt-4o-mini"
		case ProviderGemini:
			c.Model = "gemini-2.0-flash"
		default:
			c.Model = "llama-3.3-70b-versatile"
		}
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.BaseURL = "https://api.openai.com/v1"
		case ProviderGroq:
			c.BaseURL = "https://api.groq.com/openai/v1"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 8000
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.BackoffBaseMS == 0 {
		c.BackoffBaseMS = 800
	}
	if c.BackoffMaxMS == 0 {
		c.BackoffMaxMS = 8000
	}
	if c.ThrottleMS == 0 {
		c.ThrottleMS = 1200
	}
	if c.TimeoutSec == 0 {
		c.TimeoutSec = 120
	}
	if c.MaxInputChars == 0 {
		c.MaxInputChars = 90000
	}
}

// ResolveCredentials fills APIKey from the environment variable that
// matches the provider. Returns ErrMissingCredentials when none is set.
func (c *Config) ResolveCredentials() error {
	if c.APIKey != "" {
		return nil
	}
	switch c.Provider {
	case ProviderOpenAI:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
		if c.APIKey == "" {
			c.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	default:
		c.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w (provider %q)", ErrMissingCredentials, c.Provider)
	}
	return nil
}

// Client is the production Gateway.
type Client struct {
	cfg      Config
	http     *http.Client
	throttle *Throttle
	genai    *genai.Client
}

// New builds a client for cfg's provider. Credentials are resolved from
// the environment when cfg.APIKey is empty.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.ResolveCredentials(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		throttle: NewThrottle(time.Duration(cfg.ThrottleMS) * time.Millisecond),
	}
	if cfg.Provider == ProviderGemini {
		gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		c.genai = gc
	}
	return c, nil
}

// Complete sends the chat and returns the raw completion text. Inputs
// over the configured character budget are truncated before sending.
func (c *Client) Complete(ctx context.Context, msgs []Message, opts ReqOpts) (string, error) {
	msgs = c.truncate(msgs)
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.cfg.MaxTokens
	}
	if c.cfg.Provider == ProviderGemini {
		return c.completeGemini(ctx, msgs, opts)
	}
	return c.completeOpenAI(ctx, msgs, opts)
}

// CompleteJSON runs a JSON-mode completion and recovers the object from
// the reply, tolerating fenced or chatty wrappers.
func (c *Client) CompleteJSON(ctx context.Context, msgs []Message) (map[string]any, error) {
	raw, err := c.Complete(ctx, msgs, ReqOpts{JSONMode: true})
	if err != nil {
		return nil, err
	}
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, &FatalError{Body: "no JSON object in completion: " + truncateForLog(raw)}
	}
	return obj, nil
}

func (c *Client) truncate(msgs []Message) []Message {
	budget := c.cfg.MaxInputChars
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if len(m.Content) > budget {
			logf("gateway: truncating %s message from %d to %d chars", m.Role, len(m.Content), budget)
			m.Content = m.Content[:budget] + "\n\n[TRUNCATED]"
		}
		out[i] = m
	}
	return out
}

func splitSystem(msgs []Message) (system string, user string) {
	var sys, usr []string
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
		} else {
			usr = append(usr, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}
