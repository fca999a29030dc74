// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// HarvestedFile is one source file collected from a built tree.
type HarvestedFile struct {
	AbsPath  string
	RelPath  string
	Language string
	Size     int64
	Content  string
}

var langFromExt = map[string]string{
	".py": "python", ".md": "markdown", ".txt": "text", ".yml": "yaml",
	".yaml": "yaml", ".json": "json", ".toml": "toml", ".ini": "ini",
	".cfg": "ini", ".conf": "ini", ".html": "html", ".htm": "html",
	".css": "css", ".scss": "scss", ".js": "javascript", ".ts": "typescript",
	".tsx": "tsx", ".jsx": "jsx", ".sql": "sql", ".csv": "csv",
	".xml": "xml", ".sh": "bash", ".go": "go", ".rs": "rust",
	".java": "java", ".rb": "ruby", ".php": "php", ".c": "c", ".h": "c",
	".cpp": "cpp", ".hpp": "cpp", ".proto": "protobuf",
}

// GuessLanguage maps a filename to a fence language hint; "" when
// unknown.
func GuessLanguage(name string) string {
	if strings.EqualFold(filepath.Base(name), "dockerfile") {
		return "dockerfile"
	}
	return langFromExt[strings.ToLower(filepath.Ext(name))]
}

// HarvestFolder collects the text files under baseDir for export, in
// stable rel-path order. Files over maxBytes and paths containing an
// exclude token are dropped; hidden segments are dropped unless
// includeHidden is set.
func HarvestFolder(baseDir string, cfg ExportConfig) ([]HarvestedFile, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", baseDir, err)
	}
	var out []HarvestedFile
	err = filepath.WalkDir(absBase, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(absBase, p)
		if rerr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if excluded(rel, cfg.ExcludeTokens, cfg.IncludeHidden) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, noise := noiseDirs[d.Name()]; noise {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(rel) == defaultMarkerFile {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
			logf("harvest: skipping %s (%d bytes over cap)", rel, info.Size())
			return nil
		}
		data, rerr2 := os.ReadFile(p)
		if rerr2 != nil {
			logf("harvest: skipping %s: %v", rel, rerr2)
			return nil
		}
		out = append(out, HarvestedFile{
			AbsPath:  p,
			RelPath:  rel,
			Language: GuessLanguage(rel),
			Size:     info.Size(),
			Content:  DecodeDump(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", baseDir, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func excluded(rel string, tokens []string, includeHidden bool) bool {
	for _, seg := range strings.Split(rel, "/") {
		if !includeHidden && strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
		for _, tok := range tokens {
			if tok != "" && strings.Contains(seg, tok) {
				return true
			}
		}
	}
	return false
}

// BuildMarkdownDocument renders the harvested files as one markdown
// document: a heading per file followed by a fenced body.
func BuildMarkdownDocument(files []HarvestedFile, title string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	for _, f := range files {
		fmt.Fprintf(&b, "## `%s`\n\n", f.RelPath)
		fence := "```"
		for strings.Contains(f.Content, fence) {
			fence += "`"
		}
		fmt.Fprintf(&b, "%s%s\n%s\n%s\n\n", fence, f.Language, strings.TrimRight(f.Content, "\n"), fence)
	}
	return b.String()
}

// XML control characters that are illegal even inside CDATA.
var xmlInvalidRE = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

func xmlSafeText(s string) string {
	return xmlInvalidRE.ReplaceAllString(s, " ")
}

type xmlExport struct {
	XMLName xml.Name  `xml:"project"`
	Title   string    `xml:"title,attr,omitempty"`
	Files   []xmlFile `xml:"file"`
}

type xmlFile struct {
	Path     string `xml:"path,attr"`
	Language string `xml:"language,attr,omitempty"`
	Content  string `xml:",cdata"`
}

// BuildXMLDocument renders the harvested files as a single XML
// document. Control characters in content are scrubbed so the output
// is always well formed.
func BuildXMLDocument(files []HarvestedFile, title string) ([]byte, error) {
	doc := xmlExport{Title: xmlSafeText(title)}
	for _, f := range files {
		doc.Files = append(doc.Files, xmlFile{
			Path:     f.RelPath,
			Language: f.Language,
			Content:  xmlSafeText(f.Content),
		})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// BuildZip packs the harvested files into a zip archive, preserving
// relative paths.
func BuildZip(files []HarvestedFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.RelPath)
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", f.RelPath, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.RelPath, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
