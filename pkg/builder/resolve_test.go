// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"context"
	"strings"
	"testing"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

func newTestResolver(gw llm.Gateway) *resolver {
	return &resolver{
		gw:       gw,
		dump:     "irrelevant dump text",
		ext:      extractDump("## `a.py`\n```python\nfenced = 1\n```\n", "demo"),
		blobs:    map[string]string{"b.py": "blob = 1\n"},
		backfill: true,
	}
}

func TestResolveBlobFirst(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(gw)
	body, source := r.resolve(context.Background(), "b.py")
	if source != "blob" || body != "blob = 1\n" {
		t.Errorf("resolve = (%q, %s), want blob content", body, source)
	}
	if gw.calls != 0 {
		t.Errorf("gateway called %d times for a blob hit", gw.calls)
	}
}

func TestResolveFenceSecond(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(gw)
	body, source := r.resolve(context.Background(), "a.py")
	if source != "fence" || body != "fenced = 1\n" {
		t.Errorf("resolve = (%q, %s), want fence content", body, source)
	}
	if gw.calls != 0 {
		t.Errorf("gateway called %d times for a fence hit", gw.calls)
	}
}

func TestResolveLLMExtractThird(t *testing.T) {
	gw := &fakeGateway{
		completeFn: func(msgs []llm.Message, opts llm.ReqOpts) (string, error) {
			return "```python\nextracted = 1\n```", nil
		},
	}
	r := newTestResolver(gw)
	body, source := r.resolve(context.Background(), "c.py")
	if source != "llm-extract" {
		t.Fatalf("source = %s, want llm-extract", source)
	}
	if body != "extracted = 1\n" {
		t.Errorf("body = %q, accidental fence wrapper must be stripped", body)
	}
}

func TestResolveBackfillFourth(t *testing.T) {
	call := 0
	gw := &fakeGateway{
		completeFn: func(msgs []llm.Message, opts llm.ReqOpts) (string, error) {
			call++
			if call == 1 {
				return "", nil // extraction finds nothing
			}
			return "fabricated content here\n", nil
		},
	}
	r := newTestResolver(gw)
	body, source := r.resolve(context.Background(), "c.py")
	if source != "llm-backfill" || !strings.Contains(body, "fabricated") {
		t.Errorf("resolve = (%q, %s), want fabricated content", body, source)
	}
}

func TestResolveStubWhenGatewayFails(t *testing.T) {
	gw := &fakeGateway{
		completeFn: func(msgs []llm.Message, opts llm.ReqOpts) (string, error) {
			return "", &llm.FatalError{Body: "down"}
		},
	}
	r := newTestResolver(gw)
	body, source := r.resolve(context.Background(), "c.py")
	if source != "stub" {
		t.Fatalf("source = %s, want stub", source)
	}
	if strings.TrimSpace(body) == "" {
		t.Error("terminal stub must not be empty")
	}
	if !strings.Contains(body, backfillMarker) {
		t.Errorf("stub missing marker: %q", body)
	}
}

func TestResolveStubWithoutGateway(t *testing.T) {
	r := newTestResolver(nil)
	r.gw = nil
	body, source := r.resolve(context.Background(), "README.md")
	if source != "stub" || !strings.Contains(body, backfillMarker) {
		t.Errorf("resolve = (%q, %s), want canned stub", body, source)
	}
}

func TestResolveEmptyWhenBackfillDisabled(t *testing.T) {
	r := newTestResolver(nil)
	r.gw = nil
	r.backfill = false
	body, source := r.resolve(context.Background(), "c.py")
	if source != "none" || body != "" {
		t.Errorf("resolve = (%q, %s), want empty for placeholder handling", body, source)
	}
}

func TestResolveSkipsStaleStubs(t *testing.T) {
	r := newTestResolver(nil)
	r.gw = nil
	r.blobs["stale.py"] = "\"\"\"" + backfillMarker + " for stale.py.\"\"\"\n"
	body, source := r.resolve(context.Background(), "stale.py")
	if source != "stub" {
		t.Errorf("source = %s, old stub must not satisfy the cascade as a blob", source)
	}
	_ = body
}

func TestCannedStubs(t *testing.T) {
	for _, rel := range []string{"requirements.txt", "Dockerfile", "a.md", "a.py", "a.yml", "weird.xyz"} {
		if strings.TrimSpace(cannedStub(rel)) == "" {
			t.Errorf("cannedStub(%q) is empty", rel)
		}
	}
	if got := cannedStub("cfg.json"); got != "{}\n" {
		t.Errorf("json stub = %q", got)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"wrapped", "```python\nx = 1\n```", "x = 1\n"},
		{"wrapped no lang", "```\nx = 1\n```", "x = 1\n"},
		{"bare", "x = 1\n", "x = 1\n"},
		{"internal fence kept", "x = 1\n```\ny\n```\n", "x = 1\n```\ny\n```\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFence(tc.in); got != tc.want {
				t.Errorf("stripFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsEmptyOrStub(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"", true},
		{"   \n", true},
		{"ab", true},
		{"real content line\n", false},
		{"x " + backfillMarker + " y", true},
	}
	for _, tc := range cases {
		if got := isEmptyOrStub(tc.body); got != tc.want {
			t.Errorf("isEmptyOrStub(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}
