// Package flatten converts between nested JSON trees and dotted-path flat
// maps.
//
// Every walk in this package classifies a node once with Classify and then
// switches on the result:
//
//	ScalarLeaf       string, number, bool or null
//	LanguageMapLeaf  object whose keys are all known language codes and whose
//	                 values are all scalars, e.g. {"en": "Hi", "ja": "やあ"}
//	InteriorNode     any other object, or an array
//
// The root of a tree is never treated as a language map leaf.
package flatten

import (
	"sort"
	"strconv"
	"strings"

	"github.com/minios-linux/langsurface/jsontree"
	"github.com/minios-linux/langsurface/langcode"
)

// Kind is the classification of a tree node.
type Kind int

const (
	// InteriorNode is an object or array that is walked further.
	InteriorNode Kind = iota
	// LanguageMapLeaf is an object mapping language codes to scalars.
	LanguageMapLeaf
	// ScalarLeaf is a string, number, bool or null.
	ScalarLeaf
)

func (k Kind) String() string {
	switch k {
	case LanguageMapLeaf:
		return "language-map"
	case ScalarLeaf:
		return "scalar"
	default:
		return "interior"
	}
}

// Classify returns the kind of node.
func Classify(node any) Kind {
	if jsontree.IsPrimitive(node) {
		return ScalarLeaf
	}
	if obj, ok := node.(*jsontree.Object); ok && IsLanguageMap(obj) {
		return LanguageMapLeaf
	}
	return InteriorNode
}

// IsLanguageMap reports whether obj's keys form a language map key set and
// all of its values are scalars.
func IsLanguageMap(obj *jsontree.Object) bool {
	if obj == nil || !langcode.IsLanguageMapKeySet(obj.Keys()) {
		return false
	}
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		if !jsontree.IsPrimitive(v) {
			return false
		}
	}
	return true
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// ---------------------------------------------------------------------------
// Language maps
// ---------------------------------------------------------------------------

// Leaves holds the language-map leaves found in a tree.
type Leaves struct {
	// Paths lists leaf paths in document order.
	Paths []string
	// Maps maps a dotted path to its language map.
	Maps map[string]*jsontree.Object
}

// LanguageMaps collects every language-map leaf of tree under its
// dotted path. Scalars outside a language map are ignored; arrays are
// walked with path[i] segments.
func LanguageMaps(tree any) Leaves {
	out := Leaves{Maps: make(map[string]*jsontree.Object)}
	var walk func(node any, path string)
	walk = func(node any, path string) {
		kind := Classify(node)
		if path == "" && kind == LanguageMapLeaf {
			kind = InteriorNode
		}
		switch kind {
		case LanguageMapLeaf:
			if _, seen := out.Maps[path]; !seen {
				out.Paths = append(out.Paths, path)
			}
			out.Maps[path] = node.(*jsontree.Object)
		case InteriorNode:
			switch n := node.(type) {
			case *jsontree.Object:
				for _, k := range n.Keys() {
					child, _ := n.Get(k)
					walk(child, join(path, k))
				}
			case []any:
				for i, child := range n {
					walk(child, index(path, i))
				}
			}
		}
	}
	walk(tree, "")
	return out
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// Values holds the scalar values found in a tree.
type Values struct {
	// Paths lists value paths in document order.
	Paths []string
	// ByPath maps a dotted path to its string value.
	ByPath map[string]string
}

// Scalars collects every scalar of tree under its dotted path.
// An embedded language map is resolved to a single value: targetLang if
// present, else fallbackLang, else the map's first value.
func Scalars(tree any, targetLang, fallbackLang string) Values {
	out := Values{ByPath: make(map[string]string)}
	add := func(path, value string) {
		if path == "" {
			return
		}
		if _, seen := out.ByPath[path]; !seen {
			out.Paths = append(out.Paths, path)
		}
		out.ByPath[path] = value
	}
	var walk func(node any, path string)
	walk = func(node any, path string) {
		kind := Classify(node)
		if path == "" && kind == LanguageMapLeaf {
			kind = InteriorNode
		}
		switch kind {
		case ScalarLeaf:
			add(path, jsontree.String(node))
		case LanguageMapLeaf:
			add(path, pickLanguage(node.(*jsontree.Object), targetLang, fallbackLang))
		case InteriorNode:
			switch n := node.(type) {
			case *jsontree.Object:
				for _, k := range n.Keys() {
					child, _ := n.Get(k)
					walk(child, join(path, k))
				}
			case []any:
				for i, child := range n {
					walk(child, index(path, i))
				}
			}
		}
	}
	walk(tree, "")
	return out
}

func pickLanguage(obj *jsontree.Object, targetLang, fallbackLang string) string {
	lookup := func(lang string) (string, bool) {
		lang = langcode.Normalize(lang)
		if lang == "" {
			return "", false
		}
		for _, k := range obj.Keys() {
			if langcode.Normalize(k) == lang {
				v, _ := obj.Get(k)
				return jsontree.String(v), true
			}
		}
		return "", false
	}
	if v, ok := lookup(targetLang); ok {
		return v
	}
	if v, ok := lookup(fallbackLang); ok {
		return v
	}
	keys := obj.Keys()
	if len(keys) == 0 {
		return ""
	}
	v, _ := obj.Get(keys[0])
	return jsontree.String(v)
}

// ---------------------------------------------------------------------------
// Unflatten
// ---------------------------------------------------------------------------

// Unflatten builds a nested tree from dotted paths. Paths are processed in
// sorted order so the output is deterministic. Empty segments are dropped.
// When a path runs through a segment that already holds a scalar, the
// scalar is replaced by an object.
func Unflatten[V any](flat map[string]V) *jsontree.Object {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := jsontree.NewObject()
	for _, key := range keys {
		parts := splitPath(key)
		if len(parts) == 0 {
			continue
		}
		cur := root
		for i, p := range parts {
			if i == len(parts)-1 {
				cur.Set(p, flat[key])
				break
			}
			next, ok := cur.Get(p)
			obj, isObj := next.(*jsontree.Object)
			if !ok || !isObj {
				obj = jsontree.NewObject()
				cur.Set(p, obj)
			}
			cur = obj
		}
	}
	return root
}

func splitPath(key string) []string {
	raw := strings.Split(key, ".")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
