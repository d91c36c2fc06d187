package settings

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/langsurface/project"
)

func TestDecodeEmptySeedsDefaultProject(t *testing.T) {
	st, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	p := st.Current()
	if p == nil {
		t.Fatal("seeded state has no selected project")
	}
	if p.Name != "Default Project" {
		t.Fatalf("Name = %q", p.Name)
	}
	if !reflect.DeepEqual(p.Languages, []string{"en", "ja"}) {
		t.Fatalf("Languages = %v", p.Languages)
	}
	if got := p.Translation("lp.hello", "ja"); got != "こんにちは" {
		t.Fatalf("lp.hello ja = %q", got)
	}
	if got := p.Translation("lp.bye", "en"); got != "Good Bye" {
		t.Fatalf("lp.bye en = %q", got)
	}
	if !reflect.DeepEqual(st.UI.VisibleLangs, []string{"en"}) {
		t.Fatalf("VisibleLangs = %v", st.UI.VisibleLangs)
	}
}

func TestDecodeFillsDefaults(t *testing.T) {
	st, err := Decode([]byte(`{"settings":{"theme":"light"},"projects":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if st.Settings.Theme != "light" {
		t.Errorf("Theme = %q, want light", st.Settings.Theme)
	}
	if st.Settings.OpenAIModel != "gpt-4.1-mini" || !st.Settings.ConfirmDeletes || st.Settings.CellDisplay != "clip" {
		t.Errorf("defaults not filled: %+v", st.Settings)
	}
	if st.UI.ListPageSize != 100 || st.Version != StateVersion {
		t.Errorf("ui/version defaults not filled: %+v v%d", st.UI, st.Version)
	}
	if st.Current() != nil {
		t.Errorf("Current = %v, want nil", st.Current())
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte(`{"projects":`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeRepairsSelection(t *testing.T) {
	data := `{
	  "ui": {"selectedProjectId": "gone"},
	  "projects": {
	    "p_b": {"id": "p_b", "name": "Beta", "languages": ["en"], "entries": {"k": {}}},
	    "p_a": {"name": "Alpha", "languages": ["en", "fr"], "entries": {"k": {"en": "K"}}}
	  }
	}`
	st, err := Decode([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if st.UI.SelectedProjectID != "p_a" {
		t.Fatalf("SelectedProjectID = %q, want p_a", st.UI.SelectedProjectID)
	}
	a := st.Projects["p_a"]
	if a.ID != "p_a" {
		t.Errorf("ID not repaired: %q", a.ID)
	}
	if v, ok := a.Entries["k"]["fr"]; !ok || v != "" {
		t.Errorf("entries not filled: %v", a.Entries)
	}
}

func TestEncodePreservesUnknownFields(t *testing.T) {
	in := `{"version":1,"future":{"x":1},"settings":{"theme":"dark","beta":true},"ui":{},"projects":{}}`
	st, err := Decode([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	st.Settings.Theme = "light"

	out, err := st.Encode()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got["future"], map[string]any{"x": float64(1)}) {
		t.Errorf("future = %v", got["future"])
	}
	s := got["settings"].(map[string]any)
	if s["beta"] != true || s["theme"] != "light" {
		t.Errorf("settings = %v", s)
	}
	if _, ok := s["openaiModel"]; !ok {
		t.Errorf("known settings missing: %v", s)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	st := Seed()
	p := st.Current()
	if err := p.AddRule(ruleFor("Hello", "やあ")); err != nil {
		t.Fatal(err)
	}
	out, err := st.Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(out)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Current(), p) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back.Current(), p)
	}
}

func TestProjectLookupAndSelection(t *testing.T) {
	st := Default()
	a := project.New("Alpha", []string{"ja", "en"}, nil)
	b := project.New("beta", []string{"en"}, nil)
	st.AddProject(a)
	st.AddProject(b)

	if st.Current() != b {
		t.Fatal("AddProject should select the new project")
	}
	if got, err := st.Project("ALPHA"); err != nil || got != a {
		t.Fatalf("Project(ALPHA) = %v, %v", got, err)
	}
	if got, err := st.Project(b.ID); err != nil || got != b {
		t.Fatalf("Project(id) = %v, %v", got, err)
	}
	if _, err := st.Project("nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("Project(nope) err = %v", err)
	}

	if err := st.Select(a.ID); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st.UI.VisibleLangs, []string{"ja"}) {
		t.Fatalf("VisibleLangs = %v", st.UI.VisibleLangs)
	}

	if err := st.DeleteProject(a.ID); err != nil {
		t.Fatal(err)
	}
	if st.Current() != b {
		t.Fatal("deleting the selected project should select the next one")
	}
	if err := st.DeleteProject(a.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("second delete err = %v", err)
	}

	names := []string{}
	st.AddProject(project.New("alpha", nil, nil))
	for _, p := range st.SortedProjects() {
		names = append(names, strings.ToLower(p.Name))
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Fatalf("SortedProjects = %v", names)
	}
}

func TestAPIKey(t *testing.T) {
	st := Default()
	st.Settings.OpenAIAPIKey = "stored"

	tests := []struct {
		flag, env, wantKey, wantSrc string
		state                       *State
	}{
		{"f", "e", "f", "flag", st},
		{"", "e", "e", "env", st},
		{" ", "", "stored", "settings", st},
		{"", "", "", "", Default()},
		{"", "", "", "", nil},
	}
	for _, tt := range tests {
		key, src := APIKey(tt.flag, tt.env, tt.state)
		if key != tt.wantKey || src != tt.wantSrc {
			t.Errorf("APIKey(%q, %q) = %q, %q; want %q, %q", tt.flag, tt.env, key, src, tt.wantKey, tt.wantSrc)
		}
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Errorf("MaskKey(short) = %q", got)
	}
	if got := MaskKey("sk-1234567890"); got != "sk-1...7890" {
		t.Errorf("MaskKey = %q", got)
	}
}
