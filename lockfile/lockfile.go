// Package lockfile implements langsurface.lock, which records for every
// AI-made translation the MD5 of the source text it was produced from.
// "translate --refresh-stale" uses it to find translations whose source
// has since been edited.
//
// The lock file lives next to the state storage. Targets are named
// "<project id>/<language>"; keys are entry keys.
package lockfile

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "langsurface.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the langsurface.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// New returns an empty lock file that saves to path.
func New(path string) *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from dir. A missing file yields an empty lock.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return errors.New("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lf.path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Target builds the target name for one project language.
func Target(projectID, lang string) string {
	return projectID + "/" + lang
}

// IsChanged reports whether source is new or differs from the recorded one.
func (lf *LockFile) IsChanged(target, key, source string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[target][key]
	return !ok || old != Hash(source)
}

// IsStale reports whether a recorded source exists and differs from
// source. Translations the lock never saw are not stale.
func (lf *LockFile) IsStale(target, key, source string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[target][key]
	return ok && old != Hash(source)
}

// Update records the checksum of a source string after successful translation.
func (lf *LockFile) Update(target, key, source string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	lf.Checksums[target][key] = Hash(source)
}

// StaleKeys returns, sorted, the keys of sources (key -> source text) that
// IsStale reports.
func (lf *LockFile) StaleKeys(target string, sources map[string]string) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	var stale []string
	for key, src := range sources {
		if old, ok := existing[key]; ok && old != Hash(src) {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// Rename moves the records of oldKey to newKey in every target of a project.
func (lf *LockFile) Rename(projectID, oldKey, newKey string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	prefix := projectID + "/"
	for t, keys := range lf.Checksums {
		if !strings.HasPrefix(t, prefix) {
			continue
		}
		if h, ok := keys[oldKey]; ok {
			delete(keys, oldKey)
			keys[newKey] = h
		}
	}
}

// Clean removes records of keys no longer in currentKeys from every target
// of a project.
func (lf *LockFile) Clean(projectID string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	prefix := projectID + "/"
	for t, keys := range lf.Checksums {
		if !strings.HasPrefix(t, prefix) {
			continue
		}
		for k := range keys {
			if !valid[k] {
				delete(keys, k)
			}
		}
		if len(keys) == 0 {
			delete(lf.Checksums, t)
		}
	}
}

// RemoveTarget removes all checksums for a target.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// RemoveProject removes every target of a project.
func (lf *LockFile) RemoveProject(projectID string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	prefix := projectID + "/"
	for t := range lf.Checksums {
		if strings.HasPrefix(t, prefix) {
			delete(lf.Checksums, t)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns sorted list of target keys.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, n))
	}
	return fmt.Sprintf("%d targets, %d keys (%s)", targets, keys, strings.Join(parts, ", "))
}
