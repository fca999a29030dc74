// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

// Package builder reconstructs a project directory from a loosely
// structured text dump: ASCII trees, markdown headings, and fenced code
// blocks become real files, with a text-completion gateway filling the
// gaps the deterministic pass cannot.
package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

// Run marker holding the hash of the last successfully built dump.
const defaultMarkerFile = ".structbuild.hash"

// Builder runs the reconstruction pipeline. A nil gateway degrades the
// run to deterministic extraction plus canned stubs.
type Builder struct {
	cfg Config
	gw  llm.Gateway
}

// New builds a Builder, creating a gateway from cfg.LLM. Missing
// credentials are not fatal: the builder runs without a gateway and
// logs the downgrade.
func New(cfg Config) *Builder {
	cfg.applyDefaults()
	gw, err := llm.New(cfg.LLM)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredentials) {
			logf("build: no gateway credentials, running deterministic-only")
		} else {
			logf("build: gateway unavailable (%v), running deterministic-only", err)
		}
		return &Builder{cfg: cfg}
	}
	return &Builder{cfg: cfg, gw: gw}
}

// NewWithGateway builds a Builder around an explicit gateway. A nil gw
// disables LLM stages.
func NewWithGateway(cfg Config, gw llm.Gateway) *Builder {
	cfg.applyDefaults()
	return &Builder{cfg: cfg, gw: gw}
}

// BuildFile decodes a dump file from disk and builds it under destDir.
func (b *Builder) BuildFile(ctx context.Context, dumpPath, destDir, rootHint string) (BuildResult, error) {
	data, err := os.ReadFile(dumpPath)
	if err != nil {
		return BuildResult{}, fmt.Errorf("reading dump %s: %w", dumpPath, err)
	}
	return b.Build(ctx, DecodeDump(data), destDir, rootHint)
}

// Build reconstructs the project described by dump under destDir. The
// returned result lists every touched path; per-path failures are
// collected, not returned as errors. The error covers run-level
// problems only: empty dump, unusable destination, escaping root.
func (b *Builder) Build(ctx context.Context, dump, destDir, rootHint string) (BuildResult, error) {
	dump = safeNormalize(dump)
	if strings.TrimSpace(dump) == "" {
		return BuildResult{}, errors.New("empty dump")
	}
	if destDir == "" {
		destDir = "."
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return BuildResult{}, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	ext := extractDump(dump, rootHint)
	if ext.root == "" {
		ext.root = b.cfg.Build.RootFallback
	}
	rootDir, err := EnsureUnder(destDir, ext.root)
	if err != nil {
		return BuildResult{}, err
	}

	hash := dumpHash(dump)
	markerPath := filepath.Join(rootDir, b.cfg.Build.MarkerFile)
	if b.markerMatches(markerPath, hash) {
		return b.unchangedResult(rootDir, hash), nil
	}

	declared := ext.files
	blobs := map[string]string{}
	if b.gw != nil && b.cfg.Build.UseStructure() {
		root, files, err := inferStructure(ctx, b.gw, dump, rootHint, b.cfg.LLM.MaxInputChars)
		if err != nil {
			logf("build: structure inference failed (%v), using deterministic listing", err)
		} else {
			if root != "" && root != ext.root {
				logf("build: gateway root %q overrides %q", root, ext.root)
				ext.root = root
				if rootDir, err = EnsureUnder(destDir, ext.root); err != nil {
					return BuildResult{}, err
				}
				// The earlier marker check used the deterministic root;
				// check again under the renamed one so unchanged reruns
				// stop here instead of re-resolving every file.
				markerPath = filepath.Join(rootDir, b.cfg.Build.MarkerFile)
				if b.markerMatches(markerPath, hash) {
					return b.unchangedResult(rootDir, hash), nil
				}
			}
			for _, f := range files {
				declared[f] = struct{}{}
			}
			blobs = extractBlobs(ctx, b.gw, dump, ext.root, sortedPaths(declared),
				b.cfg.Build.BlobBatchSize, b.cfg.LLM.MaxInputChars)
		}
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return BuildResult{}, fmt.Errorf("creating project root %s: %w", rootDir, err)
	}

	r := &resolver{
		gw:       b.gw,
		dump:     dump,
		ext:      ext,
		blobs:    blobs,
		backfill: b.cfg.Build.UseBackfill(),
	}
	contents := make(map[string]string, len(declared))
	order := sortedPaths(declared)
	for _, rel := range order {
		body, source := r.resolve(ctx, rel)
		contents[rel] = body
		logf("build: %s <- %s", rel, source)
	}

	res := writeTree(rootDir, contents, order, b.cfg.Build.Mode, b.cfg.Build.Placeholders())
	makeDirs(rootDir, ext.dirs, &res)

	if err := os.WriteFile(markerPath, []byte(hash+"\n"), 0o644); err != nil {
		res.warnf("writing run marker: %v", err)
	}
	logf("build: done root=%s created=%d updated=%d skipped=%d unchanged=%d failed=%d",
		rootDir, len(res.Created), len(res.Updated), len(res.Skipped), len(res.Unchanged), len(res.Failed))
	return res, nil
}

// markerMatches reports whether the run marker at markerPath records
// hash, meaning the dump has not changed since the last build.
func (b *Builder) markerMatches(markerPath, hash string) bool {
	if b.cfg.Build.Force {
		return false
	}
	prev, err := os.ReadFile(markerPath)
	return err == nil && strings.TrimSpace(string(prev)) == hash
}

func (b *Builder) unchangedResult(rootDir, hash string) BuildResult {
	res := BuildResult{RootDir: rootDir, Unchanged: listExistingFiles(rootDir)}
	res.warnf("dump unchanged since last run (hash %s), skipping build", hash[:12])
	logf("build: dump unchanged, nothing to do")
	return res
}

func dumpHash(dump string) string {
	sum := sha256.Sum256([]byte(dump))
	return hex.EncodeToString(sum[:])
}
