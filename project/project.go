// Package project holds the in-memory project model: an ordered language
// list and a map of keys to per-language values.
package project

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/langcode"
)

var (
	ErrInvalidLanguage   = errors.New("invalid language code")
	ErrDuplicateLanguage = errors.New("language already exists")
	ErrLanguageNotFound  = errors.New("language not found")
	ErrEmptyKey          = errors.New("key is empty")
	ErrDuplicateKey      = errors.New("key already exists")
	ErrKeyNotFound       = errors.New("key not found")
)

// ErrLastLanguage is returned when deleting the only language left. It
// matches ErrDuplicateLanguage with errors.Is.
var ErrLastLanguage = fmt.Errorf("%w: cannot delete the last language", ErrDuplicateLanguage)

// ErrUnknownLanguage is returned for a well-formed code whose base is not a
// known language. JSON import cannot recognize such a code, so projects
// never hold one. It matches ErrInvalidLanguage with errors.Is.
var ErrUnknownLanguage = fmt.Errorf("%w: not a known language", ErrInvalidLanguage)

// Meta holds project timestamps in Unix milliseconds.
type Meta struct {
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Project is one set of translation entries.
type Project struct {
	ID               string                       `json:"id"`
	Name             string                       `json:"name"`
	Languages        []string                     `json:"languages"`
	Entries          map[string]map[string]string `json:"entries"`
	TranslationRules []glossary.Rule              `json:"translationRules"`
	Meta             Meta                         `json:"meta"`
}

// now is replaced in tests.
var now = func() int64 { return time.Now().UnixMilli() }

// NewID returns a fresh project identifier.
func NewID() string {
	return "p_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeKey trims key and collapses runs of whitespace to one space.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(key), " ")
}

// New builds a normalized project. Languages are normalized and
// deduplicated; languages found only in entries are appended. Codes that
// are not known languages are dropped together with their values.
func New(name string, languages []string, entries map[string]map[string]string) *Project {
	ts := now()
	p := &Project{
		ID:        NewID(),
		Name:      strings.TrimSpace(name),
		Languages: knownLanguages(languages),
		Entries:   make(map[string]map[string]string, len(entries)),
		Meta:      Meta{CreatedAt: ts, UpdatedAt: ts},
	}
	for key, values := range entries {
		key = NormalizeKey(key)
		if key == "" {
			continue
		}
		for lang, v := range values {
			if lang = langcode.Normalize(lang); langcode.IsLanguage(lang) {
				p.setValue(key, lang, v)
			}
		}
		if _, ok := p.Entries[key]; !ok {
			p.Entries[key] = make(map[string]string)
		}
	}
	p.Fill()
	return p
}

func knownLanguages(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, l := range langcode.Unique(codes) {
		if langcode.IsLanguage(l) {
			out = append(out, l)
		}
	}
	return out
}

// CheckLanguages returns ErrUnknownLanguage for the first project language
// that is not a known language. Decoded state is not filtered, so a stored
// project may still hold one.
func (p *Project) CheckLanguages() error {
	for _, l := range p.Languages {
		if !langcode.IsLanguage(l) {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
		}
	}
	return nil
}

func (p *Project) touch() {
	p.Meta.UpdatedAt = now()
}

func (p *Project) ensureLanguage(lang string) {
	if lang == "" || p.HasLanguage(lang) {
		return
	}
	p.Languages = append(p.Languages, lang)
}

func (p *Project) setValue(key, lang, value string) {
	if lang == "" {
		return
	}
	m, ok := p.Entries[key]
	if !ok {
		m = make(map[string]string)
		p.Entries[key] = m
	}
	m[lang] = value
}

// Fill repairs the model after decoding: nil maps are allocated, languages
// referenced only by entries are added, and every entry gets a value ("")
// for every language.
func (p *Project) Fill() {
	if p.Entries == nil {
		p.Entries = make(map[string]map[string]string)
	}
	p.Languages = langcode.Unique(p.Languages)
	for _, key := range p.Keys() {
		values := p.Entries[key]
		if values == nil {
			values = make(map[string]string)
			p.Entries[key] = values
		}
		for _, lang := range sortedLangs(values) {
			p.ensureLanguage(lang)
		}
	}
	for _, values := range p.Entries {
		for _, lang := range p.Languages {
			if _, ok := values[lang]; !ok {
				values[lang] = ""
			}
		}
	}
}

func sortedLangs(values map[string]string) []string {
	langs := make([]string, 0, len(values))
	for l := range values {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// HasLanguage reports whether lang (normalized) is a project language.
func (p *Project) HasLanguage(lang string) bool {
	lang = langcode.Normalize(lang)
	for _, l := range p.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// AddLanguage appends a language and gives every entry an empty value for it.
func (p *Project) AddLanguage(code string) (string, error) {
	lang := langcode.Normalize(code)
	if !langcode.IsWellFormed(lang) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	if !langcode.IsKnownBase(lang) {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	if p.HasLanguage(lang) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateLanguage, lang)
	}
	p.Languages = append(p.Languages, lang)
	for _, values := range p.Entries {
		if _, ok := values[lang]; !ok {
			values[lang] = ""
		}
	}
	p.touch()
	return lang, nil
}

// DeleteLanguage removes a language from the list and from every entry.
func (p *Project) DeleteLanguage(code string) error {
	lang := langcode.Normalize(code)
	idx := -1
	for i, l := range p.Languages {
		if l == lang {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrLanguageNotFound, code)
	}
	if len(p.Languages) == 1 {
		return ErrLastLanguage
	}
	p.Languages = append(p.Languages[:idx:idx], p.Languages[idx+1:]...)
	for _, values := range p.Entries {
		delete(values, lang)
	}
	p.touch()
	return nil
}

// Keys returns the entry keys sorted lexicographically.
func (p *Project) Keys() []string {
	keys := make([]string, 0, len(p.Entries))
	for k := range p.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasKey reports whether the normalized key exists.
func (p *Project) HasKey(key string) bool {
	_, ok := p.Entries[NormalizeKey(key)]
	return ok
}

// AddKey creates an entry with empty values for every language.
func (p *Project) AddKey(key string) (string, error) {
	key = NormalizeKey(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	if _, ok := p.Entries[key]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	values := make(map[string]string, len(p.Languages))
	for _, lang := range p.Languages {
		values[lang] = ""
	}
	p.Entries[key] = values
	p.touch()
	return key, nil
}

// RenameKey moves an entry to a new key.
func (p *Project) RenameKey(oldKey, newKey string) (string, error) {
	oldKey = NormalizeKey(oldKey)
	newKey = NormalizeKey(newKey)
	values, ok := p.Entries[oldKey]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, oldKey)
	}
	if newKey == "" {
		return "", ErrEmptyKey
	}
	if newKey == oldKey {
		return newKey, nil
	}
	if _, exists := p.Entries[newKey]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateKey, newKey)
	}
	delete(p.Entries, oldKey)
	p.Entries[newKey] = values
	p.touch()
	return newKey, nil
}

// DeleteKey removes an entry.
func (p *Project) DeleteKey(key string) error {
	key = NormalizeKey(key)
	if _, ok := p.Entries[key]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	delete(p.Entries, key)
	p.touch()
	return nil
}

// Translation returns the value of key in lang; missing reads as "".
func (p *Project) Translation(key, lang string) string {
	return p.Entries[NormalizeKey(key)][langcode.Normalize(lang)]
}

// SetTranslation stores value for an existing key and project language.
func (p *Project) SetTranslation(key, lang, value string) error {
	key = NormalizeKey(key)
	values, ok := p.Entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	lang = langcode.Normalize(lang)
	if !p.HasLanguage(lang) {
		return fmt.Errorf("%w: %q", ErrLanguageNotFound, lang)
	}
	values[lang] = value
	p.touch()
	return nil
}

// Rename changes the display name.
func (p *Project) Rename(name string) {
	p.Name = strings.TrimSpace(name)
	p.touch()
}

// Duplicate returns a deep copy with a new ID and a " (copy)" name suffix.
func (p *Project) Duplicate() *Project {
	ts := now()
	c := &Project{
		ID:               NewID(),
		Name:             p.Name + " (copy)",
		Languages:        append([]string(nil), p.Languages...),
		Entries:          make(map[string]map[string]string, len(p.Entries)),
		TranslationRules: append([]glossary.Rule(nil), p.TranslationRules...),
		Meta:             Meta{CreatedAt: ts, UpdatedAt: ts},
	}
	for key, values := range p.Entries {
		m := make(map[string]string, len(values))
		for l, v := range values {
			m[l] = v
		}
		c.Entries[key] = m
	}
	return c
}

// AddRule appends a translation rule.
func (p *Project) AddRule(r glossary.Rule) error {
	if strings.TrimSpace(r.From) == "" {
		return errors.New("rule needs a non-empty \"from\" text")
	}
	p.TranslationRules = append(p.TranslationRules, r.Normalized())
	p.touch()
	return nil
}

// RemoveRule deletes the rule at index i.
func (p *Project) RemoveRule(i int) error {
	if i < 0 || i >= len(p.TranslationRules) {
		return fmt.Errorf("rule index %d out of range (have %d)", i, len(p.TranslationRules))
	}
	p.TranslationRules = append(p.TranslationRules[:i:i], p.TranslationRules[i+1:]...)
	p.touch()
	return nil
}

// LangStats counts entries for one language.
type LangStats struct {
	Lang         string
	Total        int
	Translated   int
	Untranslated int
}

// Percent returns the translated share in whole percent.
func (s LangStats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Translated * 100 / s.Total
}

// Stats returns per-language counts in project language order.
func (p *Project) Stats() []LangStats {
	out := make([]LangStats, len(p.Languages))
	for i, lang := range p.Languages {
		s := LangStats{Lang: lang, Total: len(p.Entries)}
		for _, values := range p.Entries {
			if values[lang] != "" {
				s.Translated++
			}
		}
		s.Untranslated = s.Total - s.Translated
		out[i] = s
	}
	return out
}

// Validate checks the model invariants.
func (p *Project) Validate() error {
	if p.ID == "" {
		return errors.New("project has no id")
	}
	seen := make(map[string]bool, len(p.Languages))
	for _, l := range p.Languages {
		if !langcode.IsWellFormed(l) || langcode.Normalize(l) != l {
			return fmt.Errorf("%w: %q", ErrInvalidLanguage, l)
		}
		if !langcode.IsKnownBase(l) {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
		}
		if seen[l] {
			return fmt.Errorf("%w: %s", ErrDuplicateLanguage, l)
		}
		seen[l] = true
	}
	for key, values := range p.Entries {
		if key == "" {
			return ErrEmptyKey
		}
		if NormalizeKey(key) != key {
			return fmt.Errorf("key %q is not normalized", key)
		}
		for lang := range values {
			if !seen[lang] {
				return fmt.Errorf("%w: %s used by %q", ErrLanguageNotFound, lang, key)
			}
		}
	}
	return nil
}
