package importer

import (
	"fmt"
	"strings"

	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/project"
)

// ParseCSV splits text into rows of fields. Quoted fields may contain
// commas, newlines and doubled quotes. A bare \r outside quotes is dropped
// and rows whose fields are all empty are skipped. A header row and at
// least one data row are required.
func ParseCSV(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)
	endRow := func() {
		row = append(row, field.String())
		field.Reset()
		for _, v := range row {
			if v != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, field.String())
			field.Reset()
		case '\n':
			endRow()
		case '\r':
		default:
			field.WriteByte(c)
		}
	}
	endRow()

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV must have a header row and at least one data row", ErrInvalidFormat)
	}
	return rows, nil
}

// ImportCSV reads a CSV table whose first column is "key" and whose other
// columns are language codes. Columns that are not known languages are
// ignored.
func ImportCSV(data []byte) (*Result, error) {
	rows, err := ParseCSV(string(data))
	if err != nil {
		return nil, err
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: CSV header must include: key, <language...>", ErrInvalidFormat)
	}
	if !strings.EqualFold(header[0], "key") {
		return nil, fmt.Errorf("%w: CSV first column must be named \"key\", got %q", ErrInvalidFormat, header[0])
	}

	res := newResult()
	columns := make(map[int]string)
	for c := 1; c < len(header); c++ {
		lang := langcode.Normalize(header[c])
		if !langcode.IsLanguage(lang) {
			continue
		}
		columns[c] = lang
		res.addLanguage(lang)
	}
	if len(res.Languages) == 0 {
		return nil, fmt.Errorf("%w: CSV must include at least one language column (e.g. en, ja)", ErrInvalidFormat)
	}

	for _, row := range rows[1:] {
		key := project.NormalizeKey(row[0])
		if key == "" {
			continue
		}
		for c := 1; c < len(header); c++ {
			lang, ok := columns[c]
			if !ok {
				continue
			}
			value := ""
			if c < len(row) {
				value = row[c]
			}
			res.set(key, lang, value)
		}
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: CSV has no rows with a key", ErrEmptyResult)
	}
	return res, nil
}
