// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"context"
	"strings"
	"testing"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

func TestInferStructure(t *testing.T) {
	gw := &fakeGateway{
		jsonFn: func(msgs []llm.Message) (map[string]any, error) {
			return map[string]any{
				"root": "demo/",
				"files": []any{
					"app/main.py",
					"demo/app/util.py", // root prefix gets stripped
					"../evil.py",       // rejected
					42,                 // wrong type, dropped
					"notes",            // bare non-texty, dropped
				},
			}, nil
		},
	}
	root, files, err := inferStructure(context.Background(), gw, "dump text", "", 90000)
	if err != nil {
		t.Fatalf("inferStructure: %v", err)
	}
	if root != "demo" {
		t.Errorf("root = %q, want demo", root)
	}
	want := []string{"app/main.py", "app/util.py"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestInferStructureChunksLargeDump(t *testing.T) {
	var chunks []string
	gw := &fakeGateway{
		jsonFn: func(msgs []llm.Message) (map[string]any, error) {
			chunks = append(chunks, msgs[1].Content)
			return map[string]any{"root": "demo", "files": []any{"a/b.py"}}, nil
		},
	}
	dump := strings.Repeat("line of dump text\n", 100)
	_, files, err := inferStructure(context.Background(), gw, dump, "", 500)
	if err != nil {
		t.Fatalf("inferStructure: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected chunked calls, got %d", len(chunks))
	}
	if len(files) != 1 {
		t.Errorf("duplicate paths not unioned: %v", files)
	}
}

func TestInferStructurePropagatesGatewayError(t *testing.T) {
	gw := &fakeGateway{
		jsonFn: func(msgs []llm.Message) (map[string]any, error) {
			return nil, &llm.TransientError{Status: 503}
		},
	}
	if _, _, err := inferStructure(context.Background(), gw, "x", "", 90000); err == nil {
		t.Fatal("gateway failure must surface so the caller can degrade")
	}
}

func TestExtractBlobs(t *testing.T) {
	var batches [][]string
	gw := &fakeGateway{
		jsonFn: func(msgs []llm.Message) (map[string]any, error) {
			var batch []string
			for _, line := range strings.Split(msgs[1].Content, "\n") {
				if strings.HasPrefix(line, "- ") {
					batch = append(batch, strings.TrimPrefix(line, "- "))
				}
			}
			batches = append(batches, batch)
			out := []any{}
			for _, p := range batch {
				out = append(out, map[string]any{"path": p, "content": "content of " + p + "\n"})
			}
			return map[string]any{"files": out}, nil
		},
	}
	paths := []string{"a/1.py", "a/2.py", "a/3.py", "a/4.py", "a/5.py", "a/6.py", "a/7.py"}
	got := extractBlobs(context.Background(), gw, "dump", "demo", paths, 6, 90000)
	if len(batches) != 2 {
		t.Errorf("batches = %d, want 2 for 7 paths at size 6", len(batches))
	}
	if len(got) != len(paths) {
		t.Errorf("blobs = %d, want %d", len(got), len(paths))
	}
	if got["a/1.py"] != "content of a/1.py\n" {
		t.Errorf("blob = %q", got["a/1.py"])
	}
}

func TestExtractBlobsSkipsFailedBatch(t *testing.T) {
	call := 0
	gw := &fakeGateway{
		jsonFn: func(msgs []llm.Message) (map[string]any, error) {
			call++
			if call == 1 {
				return nil, &llm.TransientError{Status: 500}
			}
			return map[string]any{"files": []any{
				map[string]any{"path": "b.py", "content": "ok\n"},
			}}, nil
		},
	}
	got := extractBlobs(context.Background(), gw, "dump", "demo", []string{"a.py", "b.py"}, 1, 90000)
	if _, ok := got["a.py"]; ok {
		t.Error("failed batch produced content")
	}
	if got["b.py"] != "ok\n" {
		t.Errorf("second batch lost: %v", got)
	}
}

func TestChunkText(t *testing.T) {
	if got := chunkText("short", 100); len(got) != 1 || got[0] != "short" {
		t.Errorf("chunkText small = %v", got)
	}
	text := strings.Repeat("0123456789\n", 10)
	chunks := chunkText(text, 35)
	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want several", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reassemble the input")
	}
	for i, c := range chunks {
		if len(c) > 35 {
			t.Errorf("chunk %d over budget: %d chars", i, len(c))
		}
	}
}

func TestStringSliceCoercion(t *testing.T) {
	if got := stringSlice([]any{"a", 1, "b", nil}); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("stringSlice = %v", got)
	}
	if got := stringSlice("not a list"); got != nil {
		t.Errorf("stringSlice on scalar = %v, want nil", got)
	}
	if got := stringSlice(nil); got != nil {
		t.Errorf("stringSlice(nil) = %v, want nil", got)
	}
}
