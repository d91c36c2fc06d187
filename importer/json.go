package importer

import (
	"fmt"
	"strings"

	"github.com/minios-linux/langsurface/flatten"
	"github.com/minios-linux/langsurface/jsontree"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/project"
)

// metadataKeys are root-level keys of a single-language tree that describe
// the file rather than hold translatable text.
var metadataKeys = map[string]bool{
	"label": true,
	"alias": true,
}

// JSONOptions controls how single-language JSON trees are interpreted.
type JSONOptions struct {
	// FileName is used for language inference and error messages.
	FileName string
	// Language forces the language of a single-language tree.
	Language string
	// DefaultLanguage applies when neither Language nor the file name
	// yields one. Empty means "en".
	DefaultLanguage string
	// FallbackLanguage resolves language maps embedded in a
	// single-language tree when the tree's own language is missing.
	FallbackLanguage string
}

// ClassifyJSON interprets root as a translation map, either pre-flattened
// ({"a.b": {"en": …}}) or nested ({"a": {"b": {"en": …}}}). It returns nil
// when root holds no language maps.
func ClassifyJSON(root any) *Result {
	obj, ok := root.(*jsontree.Object)
	if !ok {
		return nil
	}

	var (
		paths  []string
		leaves = make(map[string]*jsontree.Object)
	)
	preFlattened := false
	for _, k := range obj.Keys() {
		if strings.Contains(k, ".") {
			preFlattened = true
			break
		}
	}
	if preFlattened {
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			m, ok := v.(*jsontree.Object)
			if !ok || !flatten.IsLanguageMap(m) {
				continue
			}
			paths = append(paths, k)
			leaves[k] = m
		}
	} else {
		found := flatten.LanguageMaps(obj)
		paths, leaves = found.Paths, found.Maps
	}

	res := newResult()
	for _, p := range paths {
		key := project.NormalizeKey(p)
		if key == "" {
			continue
		}
		m := leaves[p]
		for _, raw := range m.Keys() {
			lang := langcode.Normalize(raw)
			if !langcode.IsLanguage(lang) {
				continue
			}
			v, _ := m.Get(raw)
			res.set(key, lang, jsontree.String(v))
			res.addLanguage(lang)
		}
	}
	if res.Empty() {
		return nil
	}
	return res
}

// ImportJSON reads one JSON (or JSONC) file. A translation map is imported
// with all of its languages; any other object is imported as one
// language's nested value tree.
func ImportJSON(data []byte, opts JSONOptions) (*Result, error) {
	root, err := parseRoot(data, opts.FileName)
	if err != nil {
		return nil, err
	}
	if res := ClassifyJSON(root); res != nil {
		return res, nil
	}

	lang := langcode.Normalize(opts.Language)
	if lang == "" {
		lang = langcode.InferFromFileName(opts.FileName)
	}
	if lang == "" {
		lang = langcode.Normalize(opts.DefaultLanguage)
	}
	if lang == "" {
		lang = "en"
	}
	if !langcode.IsLanguage(lang) {
		return nil, fmt.Errorf("%w: %s: %q is not a known language code", ErrInvalidFormat, displayName(opts.FileName), lang)
	}

	res := singleLanguage(unwrap(root, lang), lang, opts.FallbackLanguage, true)
	if res.Empty() {
		return nil, fmt.Errorf("%w: %s has no string values", ErrEmptyResult, displayName(opts.FileName))
	}
	return res, nil
}

// File is one named input of a batch import.
type File struct {
	Name string
	Data []byte
}

// ImportJSONFiles imports a batch of JSON files, one after another. Each
// file's language comes from its name (en.json, app_fr-ca.json); a file
// whose name carries no language must itself be a translation map. The
// first failing file aborts the whole batch.
func ImportJSONFiles(files []File, opts JSONOptions) (*Result, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrEmptyResult)
	}
	combined := newResult()
	for _, f := range files {
		res, err := importBatchFile(f, opts)
		if err != nil {
			return nil, err
		}
		combined.Merge(res)
	}
	if combined.Empty() {
		return nil, fmt.Errorf("%w: JSON files held no entries", ErrEmptyResult)
	}
	return combined, nil
}

func importBatchFile(f File, opts JSONOptions) (*Result, error) {
	if e := ext(f.Name); e != ".json" && e != ".jsonc" {
		return nil, fmt.Errorf("%w: %s: batch import supports JSON files only", ErrInvalidFormat, f.Name)
	}
	root, err := parseRoot(f.Data, f.Name)
	if err != nil {
		return nil, err
	}

	if lang := langcode.InferFromFileName(f.Name); lang != "" {
		res := singleLanguage(unwrap(root, lang), lang, opts.FallbackLanguage, false)
		if res.Empty() {
			return nil, fmt.Errorf("%w: no string values found in %s", ErrEmptyResult, f.Name)
		}
		return res, nil
	}
	if res := ClassifyJSON(root); res != nil {
		return res, nil
	}
	return nil, fmt.Errorf("%w from file name %s; name files like en.json, ja.json, fr-ca.json", ErrAmbiguousLanguage, f.Name)
}

func parseRoot(data []byte, fileName string) (*jsontree.Object, error) {
	root, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parsing JSON: %v", ErrInvalidFormat, displayName(fileName), err)
	}
	obj, ok := root.(*jsontree.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s: JSON root must be an object", ErrInvalidFormat, displayName(fileName))
	}
	return obj, nil
}

// unwrap returns the inner object of a {"<lang>": {...}} wrapper whose
// only key matches lang.
func unwrap(root *jsontree.Object, lang string) *jsontree.Object {
	keys := root.Keys()
	if len(keys) != 1 {
		return root
	}
	if !langcode.IsWellFormed(keys[0]) || langcode.Normalize(keys[0]) != lang {
		return root
	}
	v, _ := root.Get(keys[0])
	if inner, ok := v.(*jsontree.Object); ok {
		return inner
	}
	return root
}

func singleLanguage(tree *jsontree.Object, lang, fallback string, skipMetadata bool) *Result {
	res := newResult()
	values := flatten.Scalars(tree, lang, fallback)
	for _, p := range values.Paths {
		if skipMetadata && metadataKeys[p] {
			continue
		}
		key := project.NormalizeKey(p)
		if key == "" {
			continue
		}
		res.set(key, lang, values.ByPath[p])
	}
	if len(res.Entries) > 0 {
		res.addLanguage(lang)
	}
	return res
}

func displayName(fileName string) string {
	if fileName == "" {
		return "input"
	}
	return fileName
}
