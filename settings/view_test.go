package settings

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/project"
)

func ruleFor(from, to string) glossary.Rule {
	return glossary.Rule{SourceLang: "en", TargetLang: "ja", From: from, To: to}
}

func TestNormalizePageSize(t *testing.T) {
	for n, want := range map[int]int{25: 25, 1000: 1000, 0: 100, 30: 100, -1: 100} {
		if got := NormalizePageSize(n); got != want {
			t.Errorf("NormalizePageSize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	p := project.New("P", []string{"en", "ja"}, map[string]map[string]string{
		"common.ok":     {"en": "OK", "ja": "はい"},
		"common.cancel": {"en": "Cancel", "ja": "キャンセル"},
		"menu.start":    {"en": "Start", "ja": "スタート"},
	})

	if got := Filter(p, "COMMON.", "", nil); !reflect.DeepEqual(got, []string{"common.cancel", "common.ok"}) {
		t.Errorf("key filter = %v", got)
	}
	if got := Filter(p, "", "start", []string{"en"}); !reflect.DeepEqual(got, []string{"menu.start"}) {
		t.Errorf("text filter = %v", got)
	}
	if got := Filter(p, "", "キャンセル", []string{"en"}); got != nil {
		t.Errorf("text filter outside langs = %v", got)
	}
	if got := Filter(p, "", "キャンセル", nil); !reflect.DeepEqual(got, []string{"common.cancel"}) {
		t.Errorf("text filter all langs = %v", got)
	}
}

func TestViewPagesAndClamps(t *testing.T) {
	entries := map[string]map[string]string{}
	for i := 0; i < 60; i++ {
		entries["k"+strconv.Itoa(100+i)] = map[string]string{"en": "v"}
	}
	p := project.New("P", []string{"en", "fr"}, entries)

	u := UI{VisibleLangs: []string{"xx", "fr"}, ListPageSize: 25, ListPage: 9}
	v := u.View(p)
	if v.Total != 60 || v.Pages != 3 || v.Page != 2 {
		t.Fatalf("view = total %d pages %d page %d", v.Total, v.Pages, v.Page)
	}
	if len(v.Keys) != 10 || v.Keys[0] != "k150" {
		t.Fatalf("last page keys = %v", v.Keys)
	}
	if !reflect.DeepEqual(v.Langs, []string{"fr"}) || u.ListPage != 2 {
		t.Fatalf("repaired ui = %+v", u)
	}

	u = UI{ListPageSize: 7, ListFilterKey: "none"}
	v = u.View(p)
	if v.Total != 0 || v.Pages != 1 || v.Page != 0 || len(v.Keys) != 0 {
		t.Fatalf("empty view = %+v", v)
	}
	if u.ListPageSize != DefaultPageSize || !reflect.DeepEqual(u.VisibleLangs, []string{"en"}) {
		t.Fatalf("repaired ui = %+v", u)
	}
}
