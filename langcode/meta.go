package langcode

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

type regEntry struct {
	name   string
	region string
}

// registry holds native names and the region used for the flag.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var registry = map[string]regEntry{
	"af":      {"Afrikaans", "ZA"},
	"am":      {"አማርኛ", "ET"},
	"ar":      {"العربية", "SA"},
	"az":      {"Azərbaycanca", "AZ"},
	"be":      {"Беларуская", "BY"},
	"bg":      {"Български", "BG"},
	"bn":      {"বাংলা", "BD"},
	"bs":      {"Bosanski", "BA"},
	"ca":      {"Català", "ES"},
	"cs":      {"Čeština", "CZ"},
	"cy":      {"Cymraeg", "GB"},
	"da":      {"Dansk", "DK"},
	"de":      {"Deutsch", "DE"},
	"de-at":   {"Deutsch (Österreich)", "AT"},
	"de-ch":   {"Deutsch (Schweiz)", "CH"},
	"el":      {"Ελληνικά", "GR"},
	"en":      {"English", "US"},
	"en-au":   {"English (Australia)", "AU"},
	"en-ca":   {"English (Canada)", "CA"},
	"en-gb":   {"English (UK)", "GB"},
	"en-us":   {"English (US)", "US"},
	"es":      {"Español", "ES"},
	"es-mx":   {"Español (México)", "MX"},
	"et":      {"Eesti", "EE"},
	"eu":      {"Euskara", "ES"},
	"fa":      {"فارسی", "IR"},
	"fi":      {"Suomi", "FI"},
	"fil":     {"Filipino", "PH"},
	"fr":      {"Français", "FR"},
	"fr-ca":   {"Français (Canada)", "CA"},
	"ga":      {"Gaeilge", "IE"},
	"gl":      {"Galego", "ES"},
	"he":      {"עברית", "IL"},
	"hi":      {"हिन्दी", "IN"},
	"hr":      {"Hrvatski", "HR"},
	"hu":      {"Magyar", "HU"},
	"hy":      {"Հայերեն", "AM"},
	"id":      {"Bahasa Indonesia", "ID"},
	"is":      {"Íslenska", "IS"},
	"it":      {"Italiano", "IT"},
	"ja":      {"日本語", "JP"},
	"ka":      {"ქართული", "GE"},
	"kk":      {"Қазақ тілі", "KZ"},
	"km":      {"ខ្មែរ", "KH"},
	"ko":      {"한국어", "KR"},
	"lt":      {"Lietuvių", "LT"},
	"lv":      {"Latviešu", "LV"},
	"mk":      {"Македонски", "MK"},
	"mn":      {"Монгол", "MN"},
	"ms":      {"Bahasa Melayu", "MY"},
	"nb":      {"Norsk bokmål", "NO"},
	"nl":      {"Nederlands", "NL"},
	"no":      {"Norsk", "NO"},
	"pl":      {"Polski", "PL"},
	"pt":      {"Português", "PT"},
	"pt-br":   {"Português (Brasil)", "BR"},
	"ro":      {"Română", "RO"},
	"ru":      {"Русский", "RU"},
	"sk":      {"Slovenčina", "SK"},
	"sl":      {"Slovenščina", "SI"},
	"sq":      {"Shqip", "AL"},
	"sr":      {"Српски", "RS"},
	"sv":      {"Svenska", "SE"},
	"sw":      {"Kiswahili", "TZ"},
	"ta":      {"தமிழ்", "IN"},
	"th":      {"ไทย", "TH"},
	"tr":      {"Türkçe", "TR"},
	"uk":      {"Українська", "UA"},
	"ur":      {"اردو", "PK"},
	"uz":      {"O'zbek", "UZ"},
	"vi":      {"Tiếng Việt", "VN"},
	"zh":      {"中文", "CN"},
	"zh-cn":   {"简体中文", "CN"},
	"zh-hans": {"简体中文", "CN"},
	"zh-hant": {"繁體中文", "TW"},
	"zh-tw":   {"繁體中文", "TW"},
}

func canonicalize(lang string) string {
	return Normalize(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

// Resolve returns best-effort display metadata for a language code,
// supporting variants like pt_BR and pt-BR with a base-language fallback.
// Codes missing from the registry are named through CLDR self-names.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	if code == "" {
		return Meta{Name: lang}
	}
	if e, ok := registry[code]; ok {
		return Meta{Name: e.name, Flag: FlagFromRegion(e.region)}
	}
	region := ""
	if parts := strings.Split(code, "-"); len(parts) >= 2 && len(parts[len(parts)-1]) == 2 {
		region = parts[len(parts)-1]
	}
	if e, ok := registry[Base(code)]; ok {
		if region == "" {
			region = e.region
		}
		return Meta{Name: e.name, Flag: FlagFromRegion(region)}
	}
	if tag, err := language.Parse(code); err == nil {
		if name := display.Self.Name(tag); name != "" {
			return Meta{Name: name, Flag: FlagFromRegion(region)}
		}
	}
	return Meta{Name: lang, Flag: FlagFromRegion(region)}
}

// FlagFromRegion builds the regional-indicator emoji for a two-letter region.
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
