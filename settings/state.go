// Package settings holds the persisted langsurface state: user settings,
// list view state and every project, stored as one JSON blob.
//
// The blob lives either in a file or in a SQLite database:
//
//	$XDG_DATA_HOME/langsurface/state.json   (default: ~/.local/share/langsurface/)
//	<storage_path>/state.db                 (table kv, key language_surface_v1)
//
// Loading merges the stored blob over the defaults, so fields missing from
// an older blob are filled in. Top-level and settings fields this version
// does not know are kept and written back unchanged.
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. LANGSURFACE_API_KEY environment variable
//  3. settings.openaiApiKey in the stored state
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/minios-linux/langsurface/project"
)

// StateKey names the blob in key-value backends.
const StateKey = "language_surface_v1"

// StateVersion is the current blob version.
const StateVersion = 1

// ErrProjectNotFound is returned when a project reference matches nothing.
var ErrProjectNotFound = errors.New("project not found")

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Settings are user preferences.
type Settings struct {
	Theme             string `json:"theme"`
	CellDisplay       string `json:"cellDisplay"` // clip | wrap
	OpenAIAPIKey      string `json:"openaiApiKey"`
	OpenAIModel       string `json:"openaiModel"`
	DefaultMaxChars   int    `json:"defaultMaxChars"`
	DefaultSourceLang string `json:"defaultSourceLang"`
	ConfirmDeletes    bool   `json:"confirmDeletes"`
	Provider          string `json:"provider,omitempty"`
	FallbackLang      string `json:"fallbackLang,omitempty"`

	extra map[string]json.RawMessage
}

// UI is the list view state.
type UI struct {
	SelectedProjectID string         `json:"selectedProjectId"`
	VisibleLangs      []string       `json:"visibleLangs"`
	ListFilterKey     string         `json:"listFilterKey"`
	ListFilterText    string         `json:"listFilterText"`
	ListPageSize      int            `json:"listPageSize"`
	ListPage          int            `json:"listPage"`
	ColWidths         map[string]int `json:"colWidths"`
}

// State is the whole persisted blob.
type State struct {
	Version  int                         `json:"version"`
	Settings Settings                    `json:"settings"`
	UI       UI                          `json:"ui"`
	Projects map[string]*project.Project `json:"projects"`

	extra map[string]json.RawMessage
}

// DefaultSettings returns the settings of a fresh state.
func DefaultSettings() Settings {
	return Settings{
		Theme:             "dark",
		CellDisplay:       "clip",
		OpenAIModel:       "gpt-4.1-mini",
		DefaultSourceLang: "en",
		ConfirmDeletes:    true,
	}
}

// Default returns an empty state with default settings and no projects.
func Default() *State {
	return &State{
		Version:  StateVersion,
		Settings: DefaultSettings(),
		UI: UI{
			VisibleLangs: []string{},
			ListPageSize: 100,
			ColWidths:    map[string]int{},
		},
		Projects: map[string]*project.Project{},
	}
}

// Seed returns the state written on first use: the defaults plus a
// "Default Project" with two sample entries.
func Seed() *State {
	st := Default()
	p := project.New("Default Project", []string{"en", "ja"}, map[string]map[string]string{
		"lp.hello": {"en": "Hello", "ja": "こんにちは"},
		"lp.bye":   {"en": "Good Bye", "ja": "さようなら"},
	})
	st.Projects[p.ID] = p
	st.UI.SelectedProjectID = p.ID
	st.UI.VisibleLangs = []string{"en"}
	return st
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

var (
	stateFields    = []string{"version", "settings", "ui", "projects"}
	settingsFields = []string{
		"theme", "cellDisplay", "openaiApiKey", "openaiModel", "defaultMaxChars",
		"defaultSourceLang", "confirmDeletes", "provider", "fallbackLang",
	}
)

// Decode parses a stored blob. Empty data yields Seed().
func Decode(data []byte) (*State, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Seed(), nil
	}
	st := Default()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if st.Version == 0 {
		st.Version = StateVersion
	}
	st.repair()
	return st, nil
}

// Encode serializes the state, including preserved unknown fields.
func (st *State) Encode() ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshaling state: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes over the receiver's current values, which act as
// defaults, and keeps unknown top-level fields.
func (st *State) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &st.Version); err != nil {
			return fmt.Errorf("version: %w", err)
		}
	}
	if v, ok := raw["settings"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &st.Settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	if v, ok := raw["ui"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &st.UI); err != nil {
			return fmt.Errorf("ui: %w", err)
		}
	}
	if v, ok := raw["projects"]; ok && !isNull(v) {
		projects := map[string]*project.Project{}
		if err := json.Unmarshal(v, &projects); err != nil {
			return fmt.Errorf("projects: %w", err)
		}
		st.Projects = projects
	}
	st.extra = without(raw, stateFields)
	return nil
}

// MarshalJSON writes known fields and any preserved unknown ones.
func (st *State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(st.extra)+len(stateFields))
	for k, v := range st.extra {
		out[k] = v
	}
	out["version"] = st.Version
	out["settings"] = &st.Settings
	out["ui"] = st.UI
	projects := st.Projects
	if projects == nil {
		projects = map[string]*project.Project{}
	}
	out["projects"] = projects
	return json.Marshal(out)
}

// UnmarshalJSON decodes over the defaults already in s and keeps unknown
// fields.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	p := plain(*s)
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settings(p)
	s.extra = without(raw, settingsFields)
	return nil
}

// MarshalJSON writes known settings and any preserved unknown ones.
func (s *Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	known, err := json.Marshal(plain(*s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range s.extra {
		out[k] = v
	}
	return json.Marshal(out)
}

func without(raw map[string]json.RawMessage, known []string) map[string]json.RawMessage {
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// repair fills decoded projects and points the selection at an existing
// project.
func (st *State) repair() {
	if st.Projects == nil {
		st.Projects = map[string]*project.Project{}
	}
	for id, p := range st.Projects {
		if p == nil {
			delete(st.Projects, id)
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		p.Fill()
	}
	if st.UI.ColWidths == nil {
		st.UI.ColWidths = map[string]int{}
	}
	if st.UI.VisibleLangs == nil {
		st.UI.VisibleLangs = []string{}
	}
	if _, ok := st.Projects[st.UI.SelectedProjectID]; !ok {
		st.UI.SelectedProjectID = ""
		if ps := st.SortedProjects(); len(ps) > 0 {
			st.UI.SelectedProjectID = ps[0].ID
		}
	}
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

// SortedProjects returns projects ordered by name, then id.
func (st *State) SortedProjects() []*project.Project {
	out := make([]*project.Project, 0, len(st.Projects))
	for _, p := range st.Projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Project finds a project by id, then by case-insensitive name.
func (st *State) Project(ref string) (*project.Project, error) {
	ref = strings.TrimSpace(ref)
	if p, ok := st.Projects[ref]; ok {
		return p, nil
	}
	for _, p := range st.SortedProjects() {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProjectNotFound, ref)
}

// Current returns the selected project, or nil when there is none.
func (st *State) Current() *project.Project {
	return st.Projects[st.UI.SelectedProjectID]
}

// Select makes the project the current one and resets the list view to
// its first language.
func (st *State) Select(id string) error {
	p, ok := st.Projects[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	st.UI.SelectedProjectID = id
	st.UI.VisibleLangs = firstLanguage(p)
	st.UI.ListPage = 0
	return nil
}

// AddProject stores p and selects it.
func (st *State) AddProject(p *project.Project) {
	if st.Projects == nil {
		st.Projects = map[string]*project.Project{}
	}
	st.Projects[p.ID] = p
	_ = st.Select(p.ID)
}

// DeleteProject removes a project. When it was selected, the first
// remaining project is selected instead.
func (st *State) DeleteProject(id string) error {
	if _, ok := st.Projects[id]; !ok {
		return fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	delete(st.Projects, id)
	if st.UI.SelectedProjectID == id {
		st.UI.SelectedProjectID = ""
		st.UI.VisibleLangs = []string{}
		if ps := st.SortedProjects(); len(ps) > 0 {
			_ = st.Select(ps[0].ID)
		}
	}
	return nil
}

func firstLanguage(p *project.Project) []string {
	if len(p.Languages) == 0 {
		return []string{}
	}
	return []string{p.Languages[0]}
}
