package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/project"
)

// DefaultTextPrefix is the key prefix used by ImportText when none is given.
const DefaultTextPrefix = "line"

// ImportText reads newline-delimited strings. Every non-blank line becomes
// one entry keyed "<prefix>_<line number>" in language lang.
func ImportText(data []byte, lang, prefix string) (*Result, error) {
	lang = langcode.Normalize(lang)
	if !langcode.IsLanguage(lang) {
		return nil, fmt.Errorf("%w: text import needs a known language code, got %q", ErrInvalidFormat, lang)
	}
	prefix = project.NormalizeKey(prefix)
	if prefix == "" {
		prefix = DefaultTextPrefix
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	res := newResult()
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.set(prefix+"_"+strconv.Itoa(i+1), lang, line)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: text has no non-blank lines", ErrEmptyResult)
	}
	res.addLanguage(lang)
	return res, nil
}
