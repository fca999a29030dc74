// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"strings"
	"testing"
)

func TestParseTreesBasic(t *testing.T) {
	dump := strings.Join([]string{
		"demo/",
		"├── app/",
		"│   └── main.py",
		"└── README.md",
	}, "\n")

	root, res := parseTrees(strings.Split(dump, "\n"))
	if root != "demo" {
		t.Fatalf("root = %q, want %q", root, "demo")
	}
	wantFiles := []string{"app/main.py", "README.md"}
	for _, f := range wantFiles {
		if _, ok := res.files[f]; !ok {
			t.Errorf("missing file %q, got %v", f, res.files)
		}
	}
	if len(res.files) != len(wantFiles) {
		t.Errorf("files = %v, want exactly %v", res.files, wantFiles)
	}
	if _, ok := res.dirs["app"]; !ok {
		t.Errorf("missing dir %q, got %v", "app", res.dirs)
	}
}

func TestParseTreesDeepNesting(t *testing.T) {
	dump := strings.Join([]string{
		"svc/",
		"├── api/",
		"│   ├── v1/",
		"│   │   └── handlers.py",
		"│   └── router.py",
		"├── models.py",
		"└── tests/",
		"    └── test_api.py",
	}, "\n")

	_, res := parseTrees(strings.Split(dump, "\n"))
	for _, f := range []string{"api/v1/handlers.py", "api/router.py", "models.py", "tests/test_api.py"} {
		if _, ok := res.files[f]; !ok {
			t.Errorf("missing file %q, got %v", f, res.files)
		}
	}
	for _, d := range []string{"api", "api/v1", "tests"} {
		if _, ok := res.dirs[d]; !ok {
			t.Errorf("missing dir %q, got %v", d, res.dirs)
		}
	}
}

func TestParseTreesStopsAtBlankLine(t *testing.T) {
	dump := strings.Join([]string{
		"demo/",
		"├── kept.py",
		"",
		"└── dropped.py",
	}, "\n")

	_, res := parseTrees(strings.Split(dump, "\n"))
	if _, ok := res.files["kept.py"]; !ok {
		t.Errorf("missing kept.py, got %v", res.files)
	}
	if _, ok := res.files["dropped.py"]; ok {
		t.Error("tree parsing crossed a blank line")
	}
}

func TestParseTreesInlineComments(t *testing.T) {
	dump := strings.Join([]string{
		"demo/",
		"├── app/          # application package",
		"│   └── main.py   # entrypoint",
	}, "\n")

	_, res := parseTrees(strings.Split(dump, "\n"))
	if _, ok := res.files["app/main.py"]; !ok {
		t.Errorf("inline comment broke parsing, files = %v", res.files)
	}
}

func TestParseTreesSkipsNonTexty(t *testing.T) {
	dump := strings.Join([]string{
		"demo/",
		"├── main.py",
		"└── notes", // bare name, no recognized extension
	}, "\n")

	_, res := parseTrees(strings.Split(dump, "\n"))
	if _, ok := res.files["notes"]; ok {
		t.Errorf("bare non-texty name kept, files = %v", res.files)
	}
	if _, ok := res.files["main.py"]; !ok {
		t.Errorf("missing main.py, files = %v", res.files)
	}
}

func TestParseTreesSkipsSpacerLines(t *testing.T) {
	dump := strings.Join([]string{
		"demo/",
		"├── app/",
		"│   └── main.py",
		"│",
		"└── README.md",
	}, "\n")

	_, res := parseTrees(strings.Split(dump, "\n"))
	for _, f := range []string{"app/main.py", "README.md"} {
		if _, ok := res.files[f]; !ok {
			t.Errorf("missing %q after spacer line, files = %v", f, res.files)
		}
	}
}

func TestParseTreesMultipleBlocks(t *testing.T) {
	dump := strings.Join([]string{
		"first/",
		"└── a.py",
		"",
		"some prose in between.",
		"",
		"second/",
		"└── b.py",
	}, "\n")

	root, res := parseTrees(strings.Split(dump, "\n"))
	if root != "first" {
		t.Errorf("root = %q, want first tree's root", root)
	}
	for _, f := range []string{"a.py", "b.py"} {
		if _, ok := res.files[f]; !ok {
			t.Errorf("missing %q, got %v", f, res.files)
		}
	}
}

func TestTreeName(t *testing.T) {
	cases := []struct {
		raw   string
		name  string
		isDir bool
		ok    bool
	}{
		{"main.py", "main.py", false, true},
		{"app/", "app", true, true},
		{"main.py  # entry", "main.py", false, true},
		{"", "", false, false},
		{"bad name here", "bad", false, true},
		{"$weird", "", false, false},
	}
	for _, tc := range cases {
		name, isDir, ok := treeName(tc.raw)
		if name != tc.name || isDir != tc.isDir || ok != tc.ok {
			t.Errorf("treeName(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tc.raw, name, isDir, ok, tc.name, tc.isDir, tc.ok)
		}
	}
}
