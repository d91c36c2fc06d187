// Package exporter renders projects as CSV, nested JSON and per-language
// JSON files.
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/minios-linux/langsurface/flatten"
	"github.com/minios-linux/langsurface/jsontree"
	"github.com/minios-linux/langsurface/project"
)

// File is one rendered export.
type File struct {
	Name    string
	Content []byte
}

// CSV renders a header row "key,<langs...>" and one row per key in key
// order. Missing values are empty fields.
func CSV(p *project.Project) []byte {
	var b strings.Builder
	writeCSVRow(&b, append([]string{"key"}, p.Languages...))
	for _, key := range p.Keys() {
		row := make([]string, 0, len(p.Languages)+1)
		row = append(row, key)
		for _, lang := range p.Languages {
			row = append(row, p.Entries[key][lang])
		}
		writeCSVRow(&b, row)
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvEscape(f))
	}
	b.WriteByte('\n')
}

func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SingleJSON renders every entry as a full per-language object nested under
// its dotted key. Re-importing the output reproduces the project's entries
// and languages. A project holding a code that is not a known language is
// refused with project.ErrUnknownLanguage.
func SingleJSON(p *project.Project) ([]byte, error) {
	if err := p.CheckLanguages(); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", p.Name, err)
	}
	leaves := make(map[string]*jsontree.Object, len(p.Entries))
	for _, key := range p.Keys() {
		m := jsontree.NewObject()
		for _, lang := range p.Languages {
			m.Set(lang, p.Entries[key][lang])
		}
		leaves[key] = m
	}

	var tree *jsontree.Object
	if nestable(p.Keys()) {
		tree = flatten.Unflatten(leaves)
	} else {
		// Keys that would collide once nested stay flat; the importer
		// recognizes dotted top-level keys.
		tree = jsontree.NewObject()
		for _, key := range p.Keys() {
			tree.Set(key, leaves[key])
		}
	}
	data, err := jsontree.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", p.Name, err)
	}
	return data, nil
}

// nestable reports whether keys survive a dotted-path round trip: no empty
// segments and no key that is also a parent of another key.
func nestable(keys []string) bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	for _, k := range keys {
		parts := strings.Split(k, ".")
		for i, part := range parts {
			if part == "" {
				return false
			}
			if i < len(parts)-1 && set[strings.Join(parts[:i+1], ".")] {
				return false
			}
		}
	}
	return true
}

// MultiJSON renders one nested file per project language, named
// "<project>_<lang>.json". Like SingleJSON it refuses unknown languages.
func MultiJSON(p *project.Project) ([]File, error) {
	if err := p.CheckLanguages(); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", p.Name, err)
	}
	base := SafeFileName(p.Name)
	files := make([]File, 0, len(p.Languages))
	for _, lang := range p.Languages {
		flat := make(map[string]string, len(p.Entries))
		for key, values := range p.Entries {
			flat[key] = values[lang]
		}
		data, err := jsontree.Marshal(flatten.Unflatten(flat))
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", lang, err)
		}
		files = append(files, File{Name: base + "_" + lang + ".json", Content: data})
	}
	return files, nil
}

var (
	unsafeRunRe     = regexp.MustCompile(`[^\w-]+`)
	underscoreRunRe = regexp.MustCompile(`_+`)
)

// SafeFileName turns a project name into a file name stem.
func SafeFileName(name string) string {
	s := strings.TrimSpace(name)
	s = unsafeRunRe.ReplaceAllString(s, "_")
	s = underscoreRunRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "project"
	}
	return s
}

// WriteFiles writes files into dir, creating it if needed, and returns the
// written paths.
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Content, 0644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
