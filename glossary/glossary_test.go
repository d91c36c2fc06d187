package glossary

import "testing"

func TestForPair(t *testing.T) {
	rules := []Rule{
		{SourceLang: "en", TargetLang: "ja", From: "HP", To: "体力"},
		{SourceLang: "all", TargetLang: "fr", From: "Save", To: "Sauver"},
		{SourceLang: "", TargetLang: "", From: "OK", To: "OK"},
		{SourceLang: " EN ", TargetLang: "ja", From: "MP", To: "魔力"},
	}

	tests := []struct {
		name     string
		src, tgt string
		want     []string
	}{
		{"en to ja", "en", "ja", []string{"HP", "OK", "MP"}},
		{"en to fr", "en", "fr", []string{"Save", "OK"}},
		{"de to ja", "de", "ja", []string{"OK"}},
		{"case-insensitive pair", "EN", "JA", []string{"HP", "OK", "MP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForPair(rules, tt.src, tt.tgt)
			if len(got) != len(tt.want) {
				t.Fatalf("ForPair = %v, want froms %v", got, tt.want)
			}
			for i, r := range got {
				if r.From != tt.want[i] {
					t.Fatalf("ForPair[%d] = %q, want %q", i, r.From, tt.want[i])
				}
			}
		})
	}
}

func TestRuleSelectedOnlyForItsPair(t *testing.T) {
	r := Rule{SourceLang: "en", TargetLang: "ja", From: "HP", To: "体力"}
	if len(ForPair([]Rule{r}, "en", "ja")) != 1 {
		t.Fatal("rule not selected for en→ja")
	}
	if len(ForPair([]Rule{r}, "en", "fr")) != 0 {
		t.Fatal("rule selected for en→fr")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		from, text string
		want       bool
	}{
		{"HP", "Restore hp fully", true},
		{"h*p", "the HEP value", true},
		{"h*p", "the hp value", false},
		{"h*p", "the heep value", false},
		{"a.b", "axb", false},
		{"a.b", "see a.b", true},
		{"", "anything", false},
		{"line*break", "line\nbreak", true},
	}
	for _, tt := range tests {
		r := Rule{From: tt.from}
		if got := r.Match(tt.text); got != tt.want {
			t.Errorf("Rule{From: %q}.Match(%q) = %v, want %v", tt.from, tt.text, got, tt.want)
		}
	}
}

func TestRelevant(t *testing.T) {
	rules := []Rule{
		{SourceLang: "en", TargetLang: "ja", From: "HP", To: "体力"},
		{SourceLang: "en", TargetLang: "ja", From: "MP", To: "魔力"},
	}
	got := Relevant(rules, "en", "ja", "Restores HP")
	if len(got) != 1 || got[0].To != "体力" {
		t.Fatalf("Relevant = %v", got)
	}
}

func TestInstruction(t *testing.T) {
	if got := Instruction(nil); got != "" {
		t.Fatalf("Instruction(nil) = %q", got)
	}
	got := Instruction([]Rule{{SourceLang: "en", TargetLang: "ja", From: "<HP>", To: "体力"}})
	want := `[{"from":"<HP>","to":"体力"}]`
	if got != want {
		t.Fatalf("Instruction = %s, want %s", got, want)
	}
}
