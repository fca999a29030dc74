// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"regexp"
	"strings"
)

// A bare "name/" line opens an ASCII tree block.
var rootLineRE = regexp.MustCompile(`^\s*([A-Za-z0-9._\-]+)/\s*$`)

// Connector lines: "├── name", "└── name", with "│" pipes carrying the
// indentation of deeper levels.
var treeConnectorRE = regexp.MustCompile(`^([│|\s]*)(?:[├└]─+\s?)(.*)$`)

// A plain-indent tree line: leading spaces and a single safe token,
// optionally ending in "/".
var plainTreeLineRE = regexp.MustCompile(`^(\s+)([A-Za-z0-9._\-]+/?)\s*(?:#.*)?$`)

type treeEntry struct {
	level int
	name  string
}

type treeResult struct {
	dirs  map[string]struct{}
	files map[string]struct{}
}

func newTreeResult() *treeResult {
	return &treeResult{
		dirs:  make(map[string]struct{}),
		files: make(map[string]struct{}),
	}
}

// parseTrees finds every tree block in the dump (a "name/" root line
// followed by connector or indented lines) and returns the union of the
// declared directories and files, with paths relative to the root line.
// The root name of the first tree is returned for root detection.
func parseTrees(lines []string) (root string, res *treeResult) {
	res = newTreeResult()
	for i := 0; i < len(lines); i++ {
		m := rootLineRE.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if root == "" {
			root = m[1]
		}
		i = parseTreeBlock(lines, i+1, res)
	}
	return root, res
}

// parseTreeBlock consumes tree lines starting at from and returns the
// index of the last consumed line. The block ends at the first blank
// line, heading, fence marker, or horizontal rule; lines that are not
// recognizable entries are skipped.
func parseTreeBlock(lines []string, from int, res *treeResult) int {
	var stack []treeEntry
	last := from - 1
	for i := from; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		if strings.TrimSpace(line) == "" {
			return i
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "~~~") || strings.HasPrefix(trimmed, "---") {
			return i
		}

		var level int
		var rawName string
		if loc := treeConnectorRE.FindStringSubmatchIndex(line); loc != nil {
			level = loc[4] // start of the name group
			rawName = line[loc[4]:loc[5]]
		} else if m := plainTreeLineRE.FindStringSubmatch(line); m != nil {
			level = len(m[1])
			rawName = m[2]
		} else {
			// Spacer lines (a lone "│") and other non-entry lines are
			// skipped, not treated as the end of the block.
			last = i
			continue
		}

		name, isDir, ok := treeName(rawName)
		if !ok {
			last = i
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parts := make([]string, 0, len(stack)+1)
		for _, e := range stack {
			parts = append(parts, e.name)
		}
		parts = append(parts, name)
		rel := strings.Join(parts, "/")

		if isDir {
			res.dirs[rel] = struct{}{}
			stack = append(stack, treeEntry{level: level, name: name})
		} else {
			if isTextyName(name) {
				res.files[rel] = struct{}{}
				for d := len(parts) - 1; d > 0; d-- {
					res.dirs[strings.Join(parts[:d], "/")] = struct{}{}
				}
			}
		}
		last = i
	}
	return last
}

// treeName cleans one tree entry name: inline "#" comments are cut, the
// first whitespace token is taken, a trailing "/" marks a directory.
func treeName(raw string) (name string, isDir, ok bool) {
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = raw[:idx]
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false, false
	}
	name = fields[0]
	isDir = strings.HasSuffix(name, "/")
	name = strings.TrimSuffix(name, "/")
	clean, valid := cleanComponent(name)
	if !valid || clean == "" {
		return "", false, false
	}
	return clean, isDir, true
}
