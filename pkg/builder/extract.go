// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"regexp"
	"strings"
)

// Strict heading: "## path" or "## `path`" and nothing else on the line
// (2-6 hashes).
var headingStrictRE = regexp.MustCompile("^\\s*#{2,6}\\s*(?:`([^`]+)`|([A-Za-z0-9._/\\-]+))\\s*$")

// Loose heading: any heading (1-6 hashes) carrying a backticked token
// anywhere, e.g. "### 3. The `app/main.py` entrypoint".
var headingLooseRE = regexp.MustCompile("^\\s*#{1,6}.*?`([^`]+)`")

// First-line comment inside a fence declaring the file it contains:
// "# path", "// path", "; path", "-- path", "/* path */", "<!-- path -->",
// each with an optional "file:" prefix.
var commentPathRE = regexp.MustCompile(`^\s*(?:(?:#|//|;|--)\s*|/\*\s*|<!--\s*)(?i:file\s*:\s*)?([A-Za-z0-9._/\-]+)\s*(?:\*/|-->)?\s*$`)

// Multi-segment path tokens in prose, used for root guessing.
var pathTokenRE = regexp.MustCompile(`[A-Za-z0-9._\-]+(?:/[A-Za-z0-9._\-]+)+`)

var fenceOpenRE = regexp.MustCompile("^\\s*(`{3,}|~{3,})(.*)$")

// fenceBlock is one fenced code block. open and close are line indexes
// of the fence markers; close is the last line when the fence is left
// unclosed at EOF.
type fenceBlock struct {
	open, close int
	body        string
	info        string
}

// scanFences finds all fenced blocks, closed by a run of the same fence
// rune at least as long as the opener. An unclosed fence runs to EOF.
func scanFences(lines []string) []fenceBlock {
	var out []fenceBlock
	for i := 0; i < len(lines); i++ {
		m := fenceOpenRE.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		marker := m[1]
		info := strings.TrimSpace(m[2])
		// An opener with a path-like info string is a fence; one whose
		// rest contains backticks is inline noise.
		if strings.ContainsAny(info, "`~") {
			continue
		}
		closeIdx := len(lines) - 1
		var body []string
		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if isFenceClose(t, marker) {
				closeIdx = j
				break
			}
			body = append(body, lines[j])
			closeIdx = j
		}
		out = append(out, fenceBlock{
			open:  i,
			close: closeIdx,
			body:  strings.Join(body, "\n"),
			info:  info,
		})
		i = closeIdx
	}
	return out
}

func isFenceClose(trimmed, marker string) bool {
	if len(trimmed) < len(marker) {
		return false
	}
	for _, r := range trimmed {
		if r != rune(marker[0]) {
			return false
		}
	}
	return true
}

// extraction is everything the deterministic pass recovers from a dump.
type extraction struct {
	root    string
	dirs    map[string]struct{}
	files   map[string]struct{}
	content map[string]string
	strict  map[string]bool
}

// extractDump runs the full deterministic pass: tree parsing, heading
// and fence pairing, and first-line-comment fence claims.
func extractDump(text, rootHint string) *extraction {
	lines := strings.Split(text, "\n")
	fences := scanFences(lines)
	treeRoot, tree := parseTrees(lines)

	ext := &extraction{
		dirs:    make(map[string]struct{}),
		files:   make(map[string]struct{}),
		content: make(map[string]string),
		strict:  make(map[string]bool),
	}
	ext.root = resolveRoot(rootHint, treeRoot, text)

	for d := range tree.dirs {
		if rel, ok := SanitizeRelPath(d); ok {
			ext.dirs[rel] = struct{}{}
		}
	}
	for f := range tree.files {
		if rel, ok := NormalizeDeclared(f, ext.root); ok {
			ext.files[rel] = struct{}{}
		}
	}

	claimed := make(map[int]bool)
	walkHeadings(ext, lines, fences, claimed, true)
	walkHeadings(ext, lines, fences, claimed, false)
	claimCommentFences(ext, fences, claimed)

	for rel := range ext.content {
		ext.files[rel] = struct{}{}
		addParentDirs(ext.dirs, rel)
	}
	logf("extract: root=%s files=%d dirs=%d fenced=%d", ext.root, len(ext.files), len(ext.dirs), len(ext.content))
	return ext
}

// walkHeadings pairs heading lines with the next fence in document
// order. A later heading before the fence replaces the pending one. In
// the strict pass later pairings win; the loose pass only fills paths
// that still have no content.
func walkHeadings(ext *extraction, lines []string, fences []fenceBlock, claimed map[int]bool, strictPass bool) {
	fenceAt := make(map[int]*fenceBlock, len(fences))
	for i := range fences {
		fenceAt[fences[i].open] = &fences[i]
	}
	pending := ""
	for i := 0; i < len(lines); i++ {
		if fb, ok := fenceAt[i]; ok {
			if pending != "" {
				if ext.setContent(pending, strings.TrimRight(fb.body, "\n")+"\n", strictPass) {
					claimed[fb.open] = true
				}
				pending = ""
			}
			i = fb.close
			continue
		}
		raw := headingPath(lines[i], strictPass)
		if raw == "" {
			continue
		}
		rel, ok := NormalizeDeclared(raw, ext.root)
		if !ok {
			continue
		}
		pending = rel
	}
}

func headingPath(line string, strict bool) string {
	if strict {
		m := headingStrictRE.FindStringSubmatch(line)
		if m == nil {
			return ""
		}
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	m := headingLooseRE.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// setContent records fenced content for rel. Strict assignments
// overwrite earlier ones (last occurrence wins) but never replace
// non-empty content with empty. Loose assignments only fill paths with
// no usable content yet.
func (e *extraction) setContent(rel, body string, strict bool) bool {
	old, exists := e.content[rel]
	empty := strings.TrimSpace(body) == ""
	if strict {
		if empty && strings.TrimSpace(old) != "" {
			return false
		}
		e.content[rel] = body
		e.strict[rel] = true
		return true
	}
	if exists && (e.strict[rel] || strings.TrimSpace(old) != "") {
		return false
	}
	if empty {
		return false
	}
	e.content[rel] = body
	return true
}

// claimCommentFences assigns fences no heading claimed by reading a
// path out of a comment in the first three non-blank body lines. The
// comment line itself is dropped from the content.
func claimCommentFences(ext *extraction, fences []fenceBlock, claimed map[int]bool) {
	for i := range fences {
		fb := &fences[i]
		if claimed[fb.open] {
			continue
		}
		bodyLines := strings.Split(fb.body, "\n")
		seen := 0
		for li, bl := range bodyLines {
			if strings.TrimSpace(bl) == "" {
				continue
			}
			seen++
			if seen > 3 {
				break
			}
			m := commentPathRE.FindStringSubmatch(bl)
			if m == nil {
				continue
			}
			rel, ok := NormalizeDeclared(m[1], ext.root)
			if !ok {
				continue
			}
			rest := append(append([]string{}, bodyLines[:li]...), bodyLines[li+1:]...)
			body := strings.TrimLeft(strings.Join(rest, "\n"), "\n")
			if ext.setContent(rel, strings.TrimRight(body, "\n")+"\n", false) {
				claimed[fb.open] = true
			}
			break
		}
	}
}

// resolveRoot picks the project root name: explicit hint, then the
// first tree root line, then the dominant top-level path component in
// prose, then "project".
func resolveRoot(hint, treeRoot, text string) string {
	if hint != "" {
		if clean, ok := cleanComponent(strings.TrimSuffix(strings.TrimSpace(hint), "/")); ok && clean != "" {
			return clean
		}
	}
	if treeRoot != "" {
		return treeRoot
	}
	if top := dominantTopComponent(text); top != "" {
		return top
	}
	return "project"
}

// dominantTopComponent counts the leading component of multi-segment
// path tokens in the dump and returns the most frequent directory-like
// one (at least two mentions).
func dominantTopComponent(text string) string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range pathTokenRE.FindAllString(text, -1) {
		top := tok[:strings.Index(tok, "/")]
		if isTextyName(top) {
			continue
		}
		if _, ok := cleanComponent(top); !ok {
			continue
		}
		if counts[top] == 0 {
			order = append(order, top)
		}
		counts[top]++
	}
	best := ""
	for _, top := range order {
		if counts[top] >= 2 && (best == "" || counts[top] > counts[best]) {
			best = top
		}
	}
	return best
}

func addParentDirs(dirs map[string]struct{}, rel string) {
	parts := strings.Split(rel, "/")
	for d := len(parts) - 1; d > 0; d-- {
		dirs[strings.Join(parts[:d], "/")] = struct{}{}
	}
}
