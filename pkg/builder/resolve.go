// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

// Marker left in fabricated content so later runs treat it as empty and
// try to resolve the file again.
const backfillMarker = "Auto-backfilled stub"

const extractSystemPrompt = `You extract verbatim file contents from a project dump.
Return ONLY the raw content of the requested file, with no commentary,
no markdown fences, and no added text. If the dump does not contain the
file, return your best reconstruction from what the dump describes.`

const backfillSystemPrompt = `You write minimal, plausible starter content for project files.
Return ONLY the raw file content. No commentary, no markdown fences.
Keep it short and consistent with the project described in the dump.`

// Per-extension style hints appended to fabrication prompts.
var backfillStyles = map[string]string{
	".py":   "Write a minimal Python module with a docstring.",
	".md":   "Write a short markdown document with a title.",
	".yml":  "Write a minimal YAML file with commented placeholders.",
	".yaml": "Write a minimal YAML file with commented placeholders.",
	".json": "Write a minimal valid JSON object.",
	".toml": "Write a minimal TOML file.",
	".sql":  "Write a short SQL script with comments.",
	".sh":   "Write a minimal shell script with a shebang.",
	".go":   "Write a minimal Go file with a package clause.",
}

// resolver fills content for declared paths using the strict cascade:
// blob map, deterministic fence match, single-file gateway extraction,
// gateway fabrication, canned stub.
type resolver struct {
	gw       llm.Gateway
	dump     string
	ext      *extraction
	blobs    map[string]string
	backfill bool
}

// resolve returns the content for rel and the cascade stage that
// produced it. With backfill enabled the cascade never comes back
// empty; with it disabled unresolved paths return "" and the writer
// turns them into placeholders.
func (r *resolver) resolve(ctx context.Context, rel string) (body, source string) {
	if b, ok := r.blobs[rel]; ok && !isEmptyOrStub(b) {
		return safeNormalize(b), "blob"
	}
	if b, ok := r.ext.content[rel]; ok && !isEmptyOrStub(b) {
		return safeNormalize(b), "fence"
	}
	if r.gw != nil {
		if b, err := r.extractSingle(ctx, rel); err != nil {
			logf("resolve: %s: extraction failed: %v", rel, err)
		} else if !isEmptyOrStub(b) {
			return b, "llm-extract"
		}
		if r.backfill {
			if b, err := r.fabricate(ctx, rel); err != nil {
				logf("resolve: %s: fabrication failed: %v", rel, err)
			} else if !isEmptyOrStub(b) {
				return b, "llm-backfill"
			}
		}
	}
	if !r.backfill {
		return "", "none"
	}
	return cannedStub(rel), "stub"
}

func (r *resolver) extractSingle(ctx context.Context, rel string) (string, error) {
	user := fmt.Sprintf("Project root: %s\nFile: %s\n\nDump:\n%s", r.ext.root, rel, r.dump)
	out, err := r.gw.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: extractSystemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, llm.ReqOpts{MaxTokens: 6000})
	if err != nil {
		return "", err
	}
	return safeNormalize(stripFence(out)), nil
}

func (r *resolver) fabricate(ctx context.Context, rel string) (string, error) {
	hint := backfillStyles[strings.ToLower(path.Ext(rel))]
	user := fmt.Sprintf("Project root: %s\nFile to create: %s\n%s\n\nProject context:\n%s",
		r.ext.root, rel, hint, r.dump)
	out, err := r.gw.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: backfillSystemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, llm.ReqOpts{MaxTokens: 4000})
	if err != nil {
		return "", err
	}
	return safeNormalize(stripFence(out)), nil
}

// cannedStub is the terminal fallback so the cascade never yields
// nothing. Each stub carries the backfill marker.
func cannedStub(rel string) string {
	base := path.Base(rel)
	switch {
	case base == "requirements.txt":
		return "# " + backfillMarker + "\n# Add project dependencies here.\n"
	case base == "Dockerfile":
		return "# " + backfillMarker + "\nFROM python:3.11-slim\nWORKDIR /app\nCOPY . .\n"
	case base == ".gitignore":
		return "# " + backfillMarker + "\n__pycache__/\n.env\n"
	}
	switch strings.ToLower(path.Ext(rel)) {
	case ".md":
		return fmt.Sprintf("# %s\n\n_%s: add documentation._\n", rel, backfillMarker)
	case ".py":
		return fmt.Sprintf("\"\"\"%s for %s.\"\"\"\n", backfillMarker, rel)
	case ".yml", ".yaml":
		return "# " + backfillMarker + "\n"
	case ".json":
		return "{}\n"
	default:
		return "# " + backfillMarker + " for " + rel + "\n"
	}
}

// isEmptyOrStub treats whitespace-only bodies, near-empty bodies, and
// earlier backfill stubs as missing content.
func isEmptyOrStub(body string) bool {
	t := strings.TrimSpace(body)
	if len(t) < 5 {
		return true
	}
	return strings.Contains(body, backfillMarker)
}

// stripFence unwraps a reply the model wrapped in a single markdown
// fence despite instructions.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") && !strings.HasPrefix(t, "~~~") {
		return s
	}
	lines := strings.Split(t, "\n")
	if len(lines) < 2 {
		return s
	}
	last := len(lines) - 1
	if !strings.HasPrefix(strings.TrimSpace(lines[last]), lines[0][:3]) {
		return s
	}
	return strings.Join(lines[1:last], "\n") + "\n"
}

// sortedPaths returns the declared set in stable order for writing.
func sortedPaths(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
