// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

const structureSystemPrompt = `You turn a loosely structured project dump into a strict JSON object:
{"root": "<project-root-name>", "files": ["relative/path", ...]}
Rules:
- "files" lists every file the dump declares or clearly implies, as
  paths relative to the root, forward slashes only.
- Do not invent files the dump gives no evidence for.
- Output ONLY the JSON object.`

const blobSystemPrompt = `You extract verbatim file contents from a project dump. Respond with a
strict JSON object: {"files": [{"path": "...", "content": "..."}, ...]}.
Copy content exactly as it appears in the dump; use "" when the dump has
no content for a path. Output ONLY the JSON object.`

// Batch size for blob extraction calls.
const blobBatchDefault = 6

// inferStructure asks the gateway for the {root, files} layout of the
// dump. Dumps over the character budget are chunked; the results are
// unioned and the first non-empty root wins. Every path goes through
// the sanitizer. Gateway failure returns an error so the caller can
// degrade to the deterministic listing.
func inferStructure(ctx context.Context, gw llm.Gateway, dump, rootHint string, maxChars int) (string, []string, error) {
	chunks := chunkText(dump, maxChars)
	root := ""
	seen := make(map[string]struct{})
	var files []string

	for i, chunk := range chunks {
		user := fmt.Sprintf("Root hint: %s\n\nDump (part %d of %d):\n%s", rootHint, i+1, len(chunks), chunk)
		obj, err := gw.CompleteJSON(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: structureSystemPrompt},
			{Role: llm.RoleUser, Content: user},
		})
		if err != nil {
			return "", nil, fmt.Errorf("structure inference: %w", err)
		}
		if root == "" {
			if r, ok := obj["root"].(string); ok {
				if clean, valid := cleanComponent(strings.TrimSuffix(strings.TrimSpace(r), "/")); valid && clean != "" {
					root = clean
				}
			}
		}
		for _, raw := range stringSlice(obj["files"]) {
			rel, ok := NormalizeDeclared(raw, root)
			if !ok {
				continue
			}
			if _, dup := seen[rel]; !dup {
				seen[rel] = struct{}{}
				files = append(files, rel)
			}
		}
	}
	logf("infer: root=%s files=%d chunks=%d", root, len(files), len(chunks))
	return root, files, nil
}

// extractBlobs asks the gateway for verbatim contents of the given
// paths, in batches. Failed batches are logged and skipped; the merged
// map only keeps non-empty bodies and the first batch to supply a path
// wins.
func extractBlobs(ctx context.Context, gw llm.Gateway, dump, root string, paths []string, batchSize, maxChars int) map[string]string {
	if batchSize <= 0 {
		batchSize = blobBatchDefault
	}
	out := make(map[string]string)
	doc := dump
	if len(doc) > maxChars {
		doc = doc[:maxChars]
	}
	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))
		batch := paths[start:end]
		user := fmt.Sprintf("Project root: %s\nFiles:\n- %s\n\nDump:\n%s",
			root, strings.Join(batch, "\n- "), doc)
		obj, err := gw.CompleteJSON(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: blobSystemPrompt},
			{Role: llm.RoleUser, Content: user},
		})
		if err != nil {
			logf("infer: blob batch %d-%d failed: %v", start, end, err)
			continue
		}
		for _, entry := range anySlice(obj["files"]) {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			rawPath, _ := m["path"].(string)
			content, _ := m["content"].(string)
			rel, ok := NormalizeDeclared(rawPath, root)
			if !ok || strings.TrimSpace(content) == "" {
				continue
			}
			if _, dup := out[rel]; !dup {
				out[rel] = safeNormalize(content)
			}
		}
	}
	return out
}

// chunkText splits s into pieces of at most maxChars, preferring line
// boundaries near the cut.
func chunkText(s string, maxChars int) []string {
	if maxChars <= 0 || len(s) <= maxChars {
		return []string{s}
	}
	var chunks []string
	for len(s) > maxChars {
		cut := maxChars
		if nl := strings.LastIndexByte(s[:maxChars], '\n'); nl > maxChars/2 {
			cut = nl + 1
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	if len(s) > 0 {
		chunks = append(chunks, s)
	}
	return chunks
}

// stringSlice coerces a decoded JSON value into a []string, dropping
// non-string elements. Shape surprises from the model degrade to an
// empty slice, never a panic.
func stringSlice(v any) []string {
	var out []string
	for _, e := range anySlice(v) {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}
