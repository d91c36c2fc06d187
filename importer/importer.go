// Package importer turns CSV, JSON and plain text files into flat
// multi-language entries ready to be merged into a project.
package importer

import (
	"bytes"
	"errors"
	"path"
	"strings"
)

var (
	// ErrInvalidFormat reports malformed CSV or JSON structure.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrAmbiguousLanguage reports a file whose language can be neither
	// inferred from its name nor read from its content.
	ErrAmbiguousLanguage = errors.New("cannot infer language")

	// ErrEmptyResult reports input that parsed but held nothing importable.
	ErrEmptyResult = errors.New("nothing to import")
)

// Result is the output of every importer.
type Result struct {
	// Entries maps a normalized key to its per-language values.
	Entries map[string]map[string]string
	// Languages lists normalized language codes in first-seen order.
	Languages []string
}

func newResult() *Result {
	return &Result{Entries: make(map[string]map[string]string)}
}

func (r *Result) addLanguage(lang string) {
	for _, l := range r.Languages {
		if l == lang {
			return
		}
	}
	r.Languages = append(r.Languages, lang)
}

func (r *Result) set(key, lang, value string) {
	m, ok := r.Entries[key]
	if !ok {
		m = make(map[string]string)
		r.Entries[key] = m
	}
	m[lang] = value
}

// Merge copies other's values into r, language by language. Values for
// languages other does not mention are left alone.
func (r *Result) Merge(other *Result) {
	for key, values := range other.Entries {
		for lang, v := range values {
			r.set(key, lang, v)
		}
	}
	for _, l := range other.Languages {
		r.addLanguage(l)
	}
}

// Empty reports whether the result has no entries or no languages.
func (r *Result) Empty() bool {
	return r == nil || len(r.Entries) == 0 || len(r.Languages) == 0
}

// Format names an input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Detect picks the format of a file by extension and, failing that, by
// sniffing its content.
func Detect(fileName string, data []byte) Format {
	switch ext(fileName) {
	case ".csv":
		return FormatCSV
	case ".json", ".jsonc":
		return FormatJSON
	case ".txt", ".text":
		return FormatText
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	firstLine, _, _ := bytes.Cut(trimmed, []byte("\n"))
	header := strings.TrimSpace(string(firstLine))
	if name, _, ok := strings.Cut(header, ","); ok && strings.EqualFold(strings.Trim(strings.TrimSpace(name), `"`), "key") {
		return FormatCSV
	}
	return FormatText
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func ext(name string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
}
