package langcode

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "EN", want: "en"},
		{in: " fr-CA ", want: "fr-ca"},
		{in: "pt_BR", want: "ptbr"},
		{in: "zh-Hant!", want: "zh-hant"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsWellFormed(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{in: "en", want: true},
		{in: "EN", want: true},
		{in: "fil", want: true},
		{in: "zh-hant", want: true},
		{in: "sr-latn-rs", want: true},
		{in: "e", want: false},
		{in: "engl", want: false},
		{in: "en-", want: false},
		{in: "en-x", want: false},
		{in: "lp.hello", want: false},
	}

	for _, tc := range cases {
		if got := IsWellFormed(tc.in); got != tc.want {
			t.Fatalf("IsWellFormed(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsKnownBase(t *testing.T) {
	for _, code := range []string{"en", "ja", "fr-CA", "zh-hant", "fil", "no"} {
		if !IsKnownBase(code) {
			t.Fatalf("IsKnownBase(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"hp", "mp", "ok", "xx-yy", "app"} {
		if IsKnownBase(code) {
			t.Fatalf("IsKnownBase(%q) = true, want false", code)
		}
	}
}

func TestIsLanguageMapKeySet(t *testing.T) {
	cases := []struct {
		name string
		keys []string
		want bool
	}{
		{name: "languages", keys: []string{"en", "ja", "fr-ca"}, want: true},
		{name: "empty", keys: nil, want: false},
		{name: "incidental short keys", keys: []string{"ok", "no"}, want: false},
		{name: "stat names", keys: []string{"hp", "mp"}, want: false},
		{name: "one path segment", keys: []string{"en", "title"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLanguageMapKeySet(tc.keys); got != tc.want {
				t.Fatalf("IsLanguageMapKeySet(%v) = %v, want %v", tc.keys, got, tc.want)
			}
		})
	}
}

func TestInferFromFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "en.json", want: "en"},
		{in: "ja.json", want: "ja"},
		{in: "fr-ca.json", want: "fr-ca"},
		{in: "project_en.json", want: "en"},
		{in: "my-app_pt-br.json", want: "pt-br"},
		{in: "dir/sub/game-DE.json", want: "de"},
		{in: `C:\exports\game_ko.json`, want: "ko"},
		{in: "web-en.json", want: "en"},
		{in: "app-fr-ca.json", want: "fr-ca"},
		{in: "messages.json", want: ""},
		{in: "strings_app.json", want: ""},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		if got := InferFromFileName(tc.in); got != tc.want {
			t.Fatalf("InferFromFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"EN", "ja", "en", "", " JA "})
	want := []string{"en", "ja"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Unique() = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("en-GB")
		if got.Name != "English (UK)" || got.Flag != FlagFromRegion("GB") {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("pt_br")
		if got.Name != "Português (Brasil)" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback keeps region flag", func(t *testing.T) {
		got := Resolve("fr-LU")
		if got.Name != "Français" || got.Flag != FlagFromRegion("LU") {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestFlagFromRegion(t *testing.T) {
	if got := FlagFromRegion("us"); got != "\U0001F1FA\U0001F1F8" {
		t.Fatalf("FlagFromRegion(us) = %q", got)
	}
	if got := FlagFromRegion("USA"); got != "" {
		t.Fatalf("FlagFromRegion(USA) = %q, want empty", got)
	}
	if got := FlagFromRegion("1A"); got != "" {
		t.Fatalf("FlagFromRegion(1A) = %q, want empty", got)
	}
}
