// Package i18n translates langsurface's own user-facing messages.
//
// Catalogs are gettext PO files embedded from
// locales/<lang>/LC_MESSAGES/langsurface.po and read with gotext.
// Messages without a translation pass through unchanged.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "langsurface"

var (
	po     *gotext.Locale
	active string
)

// Init loads the catalog for lang. An empty lang is detected from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in that order.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	active = lang

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language passed to or detected by Init.
func Lang() string {
	if active == "" {
		return "en"
	}
	return active
}

// T translates msgid.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// Tf translates format and applies args to it.
func Tf(format string, args ...any) string {
	return fmt.Sprintf(T(format), args...)
}

// N translates a message with plural forms. The result is a format with
// one %d verb for n when the msgids have one.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// Nf selects the plural form for n and applies args to it.
func Nf(singular, plural string, n int, args ...any) string {
	return fmt.Sprintf(N(singular, plural, n), args...)
}

// Available lists the languages with an embedded catalog.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(locales, "locales/"+e.Name()+"/LC_MESSAGES/"+domain+".po"); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "ru_RU.UTF-8" -> "ru_RU"
		val, _, _ = strings.Cut(val, ".")
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
