// Package langcode classifies and normalizes language codes.
//
// A code is "well formed" when it matches base(-subtag)*, where base is two or
// three letters and every subtag is two to eight alphanumerics. A well-formed
// code only counts as a real language when its base is in a fixed list of
// known language bases. The second check keeps short incidental object keys
// such as "hp", "mp" or "ok" from being read as language maps.
package langcode

import (
	"path"
	"regexp"
	"strings"
)

var (
	wellFormedRe = regexp.MustCompile(`(?i)^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9-]`)
	fileSuffixRe = regexp.MustCompile(`^[A-Za-z]{2,3}(?:-[A-Za-z0-9]{2,8})*$`)
)

// knownBases is the reference list of language bases: ISO 639-1 plus a few
// widely used three-letter bases without a two-letter form.
var knownBases = func() map[string]bool {
	list := []string{
		"aa", "ab", "ae", "af", "ak", "am", "an", "ar", "as", "av", "ay", "az",
		"ba", "be", "bg", "bh", "bi", "bm", "bn", "bo", "br", "bs",
		"ca", "ce", "ch", "co", "cr", "cs", "cu", "cv", "cy",
		"da", "de", "dv", "dz",
		"ee", "el", "en", "eo", "es", "et", "eu",
		"fa", "ff", "fi", "fj", "fo", "fr", "fy",
		"ga", "gd", "gl", "gn", "gu", "gv",
		"ha", "he", "hi", "ho", "hr", "ht", "hu", "hy", "hz",
		"ia", "id", "ie", "ig", "ii", "ik", "io", "is", "it", "iu",
		"ja", "jv",
		"ka", "kg", "ki", "kj", "kk", "kl", "km", "kn", "ko", "kr", "ks", "ku", "kv", "kw", "ky",
		"la", "lb", "lg", "li", "ln", "lo", "lt", "lu", "lv",
		"mg", "mh", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my",
		"na", "nb", "nd", "ne", "ng", "nl", "nn", "no", "nr", "nv", "ny",
		"oc", "oj", "om", "or", "os",
		"pa", "pi", "pl", "ps", "pt",
		"qu",
		"rm", "rn", "ro", "ru", "rw",
		"sa", "sc", "sd", "se", "sg", "si", "sk", "sl", "sm", "sn", "so", "sq", "sr", "ss", "st", "su", "sv", "sw",
		"ta", "te", "tg", "th", "ti", "tk", "tl", "tn", "to", "tr", "ts", "tt", "tw", "ty",
		"ug", "uk", "ur", "uz",
		"ve", "vi", "vo",
		"wa", "wo",
		"xh",
		"yi", "yo",
		"za", "zh", "zu",
		"fil", "haw", "yue", "ceb", "hmn",
	}
	m := make(map[string]bool, len(list))
	for _, b := range list {
		m[b] = true
	}
	return m
}()

// Normalize lowercases a code and strips every character outside [a-z0-9-].
func Normalize(code string) string {
	return disallowedRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(code)), "")
}

// IsWellFormed reports whether code matches the language code pattern.
func IsWellFormed(code string) bool {
	return wellFormedRe.MatchString(strings.TrimSpace(code))
}

// Base returns the leading subtag of the normalized code.
func Base(code string) string {
	n := Normalize(code)
	if i := strings.IndexByte(n, '-'); i >= 0 {
		return n[:i]
	}
	return n
}

// IsKnownBase reports whether the code's base is a known language.
func IsKnownBase(code string) bool {
	return knownBases[Base(code)]
}

// IsLanguage reports whether code is well formed and has a known base.
func IsLanguage(code string) bool {
	return IsWellFormed(code) && IsKnownBase(code)
}

// IsLanguageMapKeySet reports whether keys look like the keys of a
// language map: non-empty, every key well formed, every base known.
func IsLanguageMapKeySet(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !IsLanguage(k) {
			return false
		}
	}
	return true
}

// InferFromFileName extracts a language from a file name such as "en.json",
// "project_ja.json" or "app-fr-ca.json". Only the trailing segment is
// considered. Returns "" when no known language is found.
func InferFromFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	// The suffix may start at the beginning or after any '_' or '-'; the
	// longest one that names a known language wins, so "web-en" yields "en"
	// and "app_fr-ca" yields "fr-ca".
	for i := 0; i < len(base); i++ {
		if i > 0 && base[i-1] != '_' && base[i-1] != '-' {
			continue
		}
		suffix := base[i:]
		if !fileSuffixRe.MatchString(suffix) {
			continue
		}
		if candidate := Normalize(suffix); IsLanguage(candidate) {
			return candidate
		}
	}
	return ""
}

// Unique normalizes codes and drops empty and duplicate entries,
// preserving first-seen order.
func Unique(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := Normalize(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
