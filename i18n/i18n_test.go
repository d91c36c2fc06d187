package i18n

import (
	"reflect"
	"testing"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"LANGUAGE wins", map[string]string{"LANGUAGE": "ru_RU.UTF-8:en_US", "LC_ALL": "de_DE.UTF-8"}, "ru_RU"},
		{"C and POSIX skipped", map[string]string{"LANGUAGE": "C", "LC_ALL": "POSIX", "LC_MESSAGES": "fr_FR.UTF-8"}, "fr_FR"},
		{"LANG", map[string]string{"LANG": "ja_JP.UTF-8"}, "ja_JP"},
		{"fallback", nil, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLocaleEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := detectLanguage(); got != tt.want {
				t.Fatalf("detectLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q", got)
	}
	if got := Nf("%d key", "%d keys", 1, 1); got != "1 key" {
		t.Fatalf("Nf singular = %q", got)
	}
	if got := Nf("%d key", "%d keys", 3, 3); got != "3 keys" {
		t.Fatalf("Nf plural = %q", got)
	}
}

func TestEmbeddedCatalogs(t *testing.T) {
	if got := Available(); !reflect.DeepEqual(got, []string{"ja", "ru"}) {
		t.Fatalf("Available() = %v", got)
	}

	old, oldActive := po, active
	t.Cleanup(func() { po, active = old, oldActive })

	Init("ru_RU")
	if Lang() != "ru_RU" {
		t.Fatalf("Lang() = %q", Lang())
	}
	if got := T("Saved."); got != "Сохранено." {
		t.Fatalf("T(ru) = %q", got)
	}
	if got := Tf("Unknown setting %q", "x"); got != `Неизвестная настройка "x"` {
		t.Fatalf("Tf(ru) = %q", got)
	}
	if got := Nf("%d key", "%d keys", 5, 5); got != "5 ключей" {
		t.Fatalf("Nf(ru, 5) = %q", got)
	}
	if got := Nf("%d key", "%d keys", 2, 2); got != "2 ключа" {
		t.Fatalf("Nf(ru, 2) = %q", got)
	}

	Init("ja")
	if got := T("Saved."); got != "保存しました。" {
		t.Fatalf("T(ja) = %q", got)
	}
	Init("de")
	if got := T("Saved."); got != "Saved." {
		t.Fatalf("T(de) = %q", got)
	}
}
