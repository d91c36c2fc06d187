package settings

import (
	"slices"
	"strings"

	"github.com/minios-linux/langsurface/project"
)

// PageSizes are the accepted list page sizes.
var PageSizes = []int{25, 50, 100, 200, 500, 1000}

// DefaultPageSize replaces page sizes outside PageSizes.
const DefaultPageSize = 100

// NormalizePageSize returns n when it is an accepted size, else the default.
func NormalizePageSize(n int) int {
	if slices.Contains(PageSizes, n) {
		return n
	}
	return DefaultPageSize
}

// View is one page of the filtered key list.
type View struct {
	Langs []string // languages shown and searched
	Keys  []string // keys on this page
	Total int      // keys matching the filters
	Page  int      // zero-based, clamped
	Pages int
}

// Visible returns the visible languages that still exist in p, or p's
// first language when none do.
func (u *UI) Visible(p *project.Project) []string {
	var keep []string
	for _, l := range u.VisibleLangs {
		if p.HasLanguage(l) {
			keep = append(keep, l)
		}
	}
	if len(keep) == 0 {
		return firstLanguage(p)
	}
	return keep
}

// Filter returns the sorted keys of p matching the key and text filters.
// The key filter is a case-insensitive substring of the key; the text
// filter is a case-insensitive substring of any value in langs.
func Filter(p *project.Project, keyFilter, textFilter string, langs []string) []string {
	keyFilter = strings.ToLower(keyFilter)
	textFilter = strings.ToLower(textFilter)
	if len(langs) == 0 {
		langs = p.Languages
	}

	var out []string
	for _, k := range p.Keys() {
		if keyFilter != "" && !strings.Contains(strings.ToLower(k), keyFilter) {
			continue
		}
		if textFilter == "" || matchesText(p, k, textFilter, langs) {
			out = append(out, k)
		}
	}
	return out
}

func matchesText(p *project.Project, key, text string, langs []string) bool {
	for _, l := range langs {
		if strings.Contains(strings.ToLower(p.Translation(key, l)), text) {
			return true
		}
	}
	return false
}

// View applies the stored filters and paging to p. The stored page size,
// page and visible languages are repaired in place.
func (u *UI) View(p *project.Project) View {
	u.VisibleLangs = u.Visible(p)
	u.ListPageSize = NormalizePageSize(u.ListPageSize)

	keys := Filter(p, u.ListFilterKey, u.ListFilterText, u.VisibleLangs)
	pages := (len(keys) + u.ListPageSize - 1) / u.ListPageSize
	if pages < 1 {
		pages = 1
	}
	u.ListPage = max(0, min(pages-1, u.ListPage))

	start := u.ListPage * u.ListPageSize
	end := min(len(keys), start+u.ListPageSize)
	return View{
		Langs: slices.Clone(u.VisibleLangs),
		Keys:  keys[start:end],
		Total: len(keys),
		Page:  u.ListPage,
		Pages: pages,
	}
}
