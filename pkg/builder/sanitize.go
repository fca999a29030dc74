// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// PathEscapeError reports a path that would resolve outside the
// destination directory.
type PathEscapeError struct {
	Base   string
	Target string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path %q escapes base directory %q", e.Target, e.Base)
}

var safeComponentRE = regexp.MustCompile(`^[A-Za-z0-9._\-]+$`)

// Bare filenames (no directory, no recognized extension) accepted as
// project files anyway.
var bareFilenameAllowList = map[string]struct{}{
	"Dockerfile":         {},
	"Makefile":           {},
	"README":             {},
	"README.md":          {},
	"LICENSE":            {},
	".env":               {},
	".env.example":       {},
	".gitignore":         {},
	".dockerignore":      {},
	"docker-compose.yml": {},
	"requirements.txt":   {},
	"pyproject.toml":     {},
	"package.json":       {},
	"go.mod":             {},
	"go.sum":             {},
}

// Extensions treated as plain-text project files.
var textExtensions = map[string]struct{}{
	".py": {}, ".md": {}, ".txt": {}, ".yml": {}, ".yaml": {}, ".json": {},
	".toml": {}, ".ini": {}, ".cfg": {}, ".conf": {}, ".html": {}, ".htm": {},
	".css": {}, ".scss": {}, ".sass": {}, ".js": {}, ".ts": {}, ".tsx": {},
	".jsx": {}, ".sql": {}, ".csv": {}, ".xml": {}, ".env": {}, ".sh": {},
	".go": {}, ".rs": {}, ".java": {}, ".rb": {}, ".php": {}, ".c": {},
	".h": {}, ".cpp": {}, ".hpp": {}, ".proto": {}, ".gitignore": {},
}

// Filenames never worth materializing.
var skipFilenames = map[string]struct{}{
	".DS_Store": {},
	"Thumbs.db": {},
}

// cleanComponent validates one path segment. Empty and "." segments are
// dropped (ok with empty result); ".." and segments with characters
// outside [A-Za-z0-9._-] reject the whole path.
func cleanComponent(seg string) (string, bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" || seg == "." {
		return "", true
	}
	if seg == ".." || !safeComponentRE.MatchString(seg) {
		return "", false
	}
	return seg, true
}

// SanitizeRelPath normalizes a declared path into a safe slash-separated
// relative path. Backslashes become slashes, a leading "./" is dropped,
// repeated slashes collapse. Any ".." segment or unsafe character
// rejects the path entirely.
func SanitizeRelPath(raw string) (string, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	raw = strings.TrimPrefix(raw, "./")
	if raw == "" {
		return "", false
	}
	var parts []string
	for _, seg := range strings.Split(raw, "/") {
		clean, ok := cleanComponent(seg)
		if !ok {
			return "", false
		}
		if clean != "" {
			parts = append(parts, clean)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	rel := strings.Join(parts, "/")
	if _, skip := skipFilenames[path.Base(rel)]; skip {
		return "", false
	}
	return rel, true
}

// NormalizeDeclared sanitizes a path declared in dump prose. The root
// prefix is stripped first, then the bare-filename policy applies: a
// single-segment name must be on the allow list or carry a recognized
// text extension, so stray words in headings do not become files.
func NormalizeDeclared(raw, root string) (string, bool) {
	rel, ok := SanitizeRelPath(raw)
	if !ok {
		return "", false
	}
	if root != "" {
		if rel == root {
			return "", false
		}
		rel = strings.TrimPrefix(rel, root+"/")
	}
	if !strings.Contains(rel, "/") && !isTextyName(rel) {
		return "", false
	}
	return rel, true
}

// isTextyName reports whether a bare filename looks like a real project
// file: on the allow list, or with a recognized text extension.
func isTextyName(name string) bool {
	if _, ok := bareFilenameAllowList[name]; ok {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := textExtensions[ext]
	return ok
}

// EnsureUnder joins rel under base and verifies the resolved target
// stays inside base, following symlinks on the existing part of the
// path. It returns the absolute target path.
func EnsureUnder(base, rel string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base %q: %w", base, err)
	}
	if resolved, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = resolved
	}
	target := filepath.Clean(filepath.Join(absBase, filepath.FromSlash(rel)))
	resolved, err := resolveExistingPrefix(target)
	if err == nil {
		target = resolved
	}
	relCheck, err := filepath.Rel(absBase, target)
	if err != nil || relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(os.PathSeparator)) {
		return "", &PathEscapeError{Base: absBase, Target: target}
	}
	return target, nil
}

// resolveExistingPrefix resolves symlinks on the longest existing
// ancestor of p and rejoins the non-existing remainder.
func resolveExistingPrefix(p string) (string, error) {
	var tail []string
	cur := p
	for {
		if _, err := os.Lstat(cur); err == nil {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
	resolved, err := filepath.EvalSymlinks(cur)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{resolved}, tail...)...), nil
}
