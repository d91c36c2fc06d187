package project

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/langsurface/glossary"
)

func sample() *Project {
	return New("Game", []string{"EN", "ja", "en"}, map[string]map[string]string{
		"lp.hello": {"en": "Hello", "ja": "こんにちは"},
		"  lp.bye ": {"en": "Good Bye"},
	})
}

func TestNew(t *testing.T) {
	p := sample()
	if !strings.HasPrefix(p.ID, "p_") {
		t.Errorf("ID = %q", p.ID)
	}
	if !reflect.DeepEqual(p.Languages, []string{"en", "ja"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"lp.bye", "lp.hello"}) {
		t.Fatalf("Keys = %v", got)
	}
	if v, ok := p.Entries["lp.bye"]["ja"]; !ok || v != "" {
		t.Fatalf("lp.bye ja = %q, %v; want empty filled value", v, ok)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNew_LanguagesFromEntries(t *testing.T) {
	p := New("x", nil, map[string]map[string]string{
		"b": {"fr": "B"},
		"a": {"de": "A", "en": "A"},
	})
	if !reflect.DeepEqual(p.Languages, []string{"de", "en", "fr"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
}

func TestNew_DropsUnknownLanguages(t *testing.T) {
	p := New("x", []string{"en", "tlh"}, map[string]map[string]string{
		"a": {"en": "A", "tlh": "nuqneH", "xx-yy": "?"},
	})
	if !reflect.DeepEqual(p.Languages, []string{"en"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
	if !reflect.DeepEqual(p.Entries, map[string]map[string]string{"a": {"en": "A"}}) {
		t.Fatalf("Entries = %v", p.Entries)
	}
	if err := p.CheckLanguages(); err != nil {
		t.Fatalf("CheckLanguages: %v", err)
	}
	p.Languages = append(p.Languages, "tlh")
	if err := p.CheckLanguages(); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("CheckLanguages err = %v", err)
	}
}

func TestAddLanguage(t *testing.T) {
	p := sample()
	lang, err := p.AddLanguage(" FR-ca ")
	if err != nil {
		t.Fatalf("AddLanguage: %v", err)
	}
	if lang != "fr-ca" || p.Languages[2] != "fr-ca" {
		t.Fatalf("lang = %q, Languages = %v", lang, p.Languages)
	}
	for key, values := range p.Entries {
		if _, ok := values["fr-ca"]; !ok {
			t.Errorf("%s has no fr-ca value", key)
		}
	}

	if _, err := p.AddLanguage("ja"); !errors.Is(err, ErrDuplicateLanguage) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := p.AddLanguage("x"); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("invalid: err = %v", err)
	}
	if _, err := p.AddLanguage("tlh"); !errors.Is(err, ErrUnknownLanguage) || !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("unknown base: err = %v", err)
	}
	if p.HasLanguage("tlh") {
		t.Error("unknown language was added")
	}
}

func TestDeleteLanguage(t *testing.T) {
	p := sample()
	if err := p.DeleteLanguage("ja"); err != nil {
		t.Fatalf("DeleteLanguage: %v", err)
	}
	if !reflect.DeepEqual(p.Languages, []string{"en"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
	for key, values := range p.Entries {
		if _, ok := values["ja"]; ok {
			t.Errorf("%s still has ja", key)
		}
	}

	err := p.DeleteLanguage("en")
	if !errors.Is(err, ErrLastLanguage) || !errors.Is(err, ErrDuplicateLanguage) {
		t.Fatalf("last language: err = %v", err)
	}
	if len(p.Languages) != 1 {
		t.Fatalf("last language removed: %v", p.Languages)
	}
	if err := p.DeleteLanguage("ko"); !errors.Is(err, ErrLanguageNotFound) {
		t.Fatalf("unknown language: err = %v", err)
	}
}

func TestKeys(t *testing.T) {
	p := sample()

	key, err := p.AddKey("  menu   start ")
	if err != nil || key != "menu start" {
		t.Fatalf("AddKey = %q, %v", key, err)
	}
	if _, err := p.AddKey("menu start"); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("duplicate AddKey: err = %v", err)
	}
	if _, err := p.AddKey("   "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("empty AddKey: err = %v", err)
	}

	if err := p.SetTranslation("menu start", "JA", "開始"); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if _, err := p.RenameKey("menu start", "lp.hello"); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("rename collision: err = %v", err)
	}
	if _, err := p.RenameKey("menu start", "menu.start"); err != nil {
		t.Fatalf("RenameKey: %v", err)
	}
	if got := p.Translation("menu.start", "ja"); got != "開始" {
		t.Fatalf("Translation = %q", got)
	}
	if _, err := p.RenameKey("missing", "x"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("rename missing: err = %v", err)
	}

	if err := p.DeleteKey("menu.start"); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if p.HasKey("menu.start") {
		t.Fatal("key still present")
	}
	if err := p.DeleteKey("menu.start"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("second DeleteKey: err = %v", err)
	}
	if err := p.SetTranslation("lp.hello", "ko", "x"); !errors.Is(err, ErrLanguageNotFound) {
		t.Fatalf("SetTranslation unknown lang: err = %v", err)
	}
}

func TestMutationsBumpUpdatedAt(t *testing.T) {
	orig := now
	defer func() { now = orig }()
	tick := int64(100)
	now = func() int64 { tick++; return tick }

	p := sample()
	before := p.Meta.UpdatedAt
	p.Rename("Renamed")
	if p.Meta.UpdatedAt <= before {
		t.Fatalf("UpdatedAt not bumped: %d <= %d", p.Meta.UpdatedAt, before)
	}
	if p.Meta.CreatedAt != before {
		t.Fatalf("CreatedAt changed: %d", p.Meta.CreatedAt)
	}
}

func TestDuplicate(t *testing.T) {
	p := sample()
	p.TranslationRules = []glossary.Rule{{SourceLang: "en", TargetLang: "ja", From: "HP", To: "体力"}}
	c := p.Duplicate()
	if c.ID == p.ID || c.Name != "Game (copy)" {
		t.Fatalf("copy = %s %q", c.ID, c.Name)
	}
	c.Entries["lp.hello"]["en"] = "changed"
	c.Languages[0] = "xx"
	c.TranslationRules[0].To = "x"
	if p.Entries["lp.hello"]["en"] != "Hello" || p.Languages[0] != "en" || p.TranslationRules[0].To != "体力" {
		t.Fatal("Duplicate shares state with the original")
	}
}

func TestRules(t *testing.T) {
	p := sample()
	if err := p.AddRule(glossary.Rule{TargetLang: "JA", From: "HP", To: "体力"}); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if r := p.TranslationRules[0]; r.SourceLang != "all" || r.TargetLang != "ja" {
		t.Fatalf("rule not normalized: %+v", r)
	}
	if err := p.AddRule(glossary.Rule{From: " "}); err == nil {
		t.Fatal("empty rule accepted")
	}
	if err := p.RemoveRule(3); err == nil {
		t.Fatal("out of range RemoveRule accepted")
	}
	if err := p.RemoveRule(0); err != nil || len(p.TranslationRules) != 0 {
		t.Fatalf("RemoveRule: %v, rules %v", err, p.TranslationRules)
	}
}

func TestStats(t *testing.T) {
	p := sample()
	got := p.Stats()
	want := []LangStats{
		{Lang: "en", Total: 2, Translated: 2},
		{Lang: "ja", Total: 2, Translated: 1, Untranslated: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
	if got[1].Percent() != 50 {
		t.Fatalf("Percent = %d", got[1].Percent())
	}
}

func TestValidate(t *testing.T) {
	p := sample()
	p.Entries["lp.hello"]["ko"] = "x"
	if err := p.Validate(); !errors.Is(err, ErrLanguageNotFound) {
		t.Fatalf("err = %v", err)
	}
	p.Fill()
	if err := p.Validate(); err != nil {
		t.Fatalf("after Fill: %v", err)
	}
	if !p.HasLanguage("ko") {
		t.Fatal("Fill did not add ko")
	}
}
