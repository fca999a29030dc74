// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Write modes.
const (
	ModeSkip      = "skip"
	ModeOverwrite = "overwrite"
)

// BuildResult reports what one run did, path by path. Paths are
// relative to RootDir. Per-path failures land in Failed with a warning;
// they never abort the run.
type BuildResult struct {
	RootDir      string
	Created      []string
	Updated      []string
	Skipped      []string
	Unchanged    []string
	Placeholders []string
	Failed       []string
	Warnings     []string
}

// Summary renders the result the way the CLI prints it.
func (r *BuildResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "root: %s\n", r.RootDir)
	for _, p := range r.Created {
		fmt.Fprintf(&b, "  + %s\n", p)
	}
	for _, p := range r.Updated {
		fmt.Fprintf(&b, "  ~ %s\n", p)
	}
	for _, p := range r.Placeholders {
		fmt.Fprintf(&b, "  + %s (placeholder)\n", p)
	}
	for _, p := range r.Skipped {
		fmt.Fprintf(&b, "  · %s (skipped)\n", p)
	}
	for _, p := range r.Unchanged {
		fmt.Fprintf(&b, "  · %s (unchanged)\n", p)
	}
	for _, p := range r.Failed {
		fmt.Fprintf(&b, "  ! %s (failed)\n", p)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  ! %s\n", w)
	}
	fmt.Fprintf(&b, "created=%d updated=%d placeholders=%d skipped=%d unchanged=%d failed=%d",
		len(r.Created), len(r.Updated), len(r.Placeholders), len(r.Skipped), len(r.Unchanged), len(r.Failed))
	return b.String()
}

func (r *BuildResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Directories never walked when listing an existing tree.
var noiseDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {}, "__pycache__": {}, ".mypy_cache": {},
	".pytest_cache": {}, ".venv": {}, "venv": {}, "node_modules": {}, "vendor": {},
}

// writeTree reconciles the resolved contents into rootDir. Declared
// paths without content become zero-byte placeholders when enabled.
// Every target is re-checked with EnsureUnder before touching the disk.
func writeTree(rootDir string, contents map[string]string, declared []string, mode string, placeholders bool) BuildResult {
	res := BuildResult{RootDir: rootDir}
	for _, rel := range declared {
		body, hasContent := contents[rel]
		target, err := EnsureUnder(rootDir, rel)
		if err != nil {
			res.Failed = append(res.Failed, rel)
			res.warnf("%s: %v", rel, err)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			res.Failed = append(res.Failed, rel)
			res.warnf("%s: creating parent directory: %v", rel, err)
			continue
		}

		existing, readErr := os.ReadFile(target)
		exists := readErr == nil

		switch {
		case !exists:
			if !hasContent || body == "" {
				if !placeholders {
					res.Skipped = append(res.Skipped, rel)
					continue
				}
				if err := os.WriteFile(target, nil, 0o644); err != nil {
					res.Failed = append(res.Failed, rel)
					res.warnf("%s: %v", rel, err)
					continue
				}
				res.Placeholders = append(res.Placeholders, rel)
				continue
			}
			if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
				res.Failed = append(res.Failed, rel)
				res.warnf("%s: %v", rel, err)
				continue
			}
			res.Created = append(res.Created, rel)
		case mode == ModeSkip:
			res.Skipped = append(res.Skipped, rel)
		case !hasContent || strings.TrimSpace(body) == "":
			// Never clobber an existing file with nothing.
			res.Unchanged = append(res.Unchanged, rel)
		case bytes.Equal(existing, []byte(body)):
			res.Unchanged = append(res.Unchanged, rel)
		default:
			if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
				res.Failed = append(res.Failed, rel)
				res.warnf("%s: %v", rel, err)
				continue
			}
			res.Updated = append(res.Updated, rel)
		}
	}
	return res
}

// makeDirs creates the declared directories under rootDir, path-checked
// like file writes.
func makeDirs(rootDir string, dirs map[string]struct{}, res *BuildResult) {
	for _, rel := range sortedPaths(dirs) {
		target, err := EnsureUnder(rootDir, rel)
		if err != nil {
			res.warnf("%s: %v", rel, err)
			continue
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			res.warnf("%s: %v", rel, err)
		}
	}
}

// listExistingFiles walks baseDir and returns relative paths of regular
// files, skipping noise directories and the run marker.
func listExistingFiles(baseDir string) []string {
	var out []string
	filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if _, noise := noiseDirs[d.Name()]; noise && p != baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(baseDir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if filepath.Base(rel) == defaultMarkerFile {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	sort.Strings(out)
	return out
}
