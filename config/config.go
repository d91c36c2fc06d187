// Package config loads .langsurface.yaml, the per-directory defaults for
// importing, exporting and translating.
//
// Values come from three layers, later ones winning:
//
//	.langsurface.yaml in the root directory
//	LANGSURFACE_* environment variables
//	command-line flags (applied by the caller)
//
// A missing file is not an error; the defaults apply.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/translate"
)

// FileName is the config file name looked up in the root directory.
const FileName = ".langsurface.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LANGSURFACE_"

// Storage kinds.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Config is the .langsurface.yaml structure.
type Config struct {
	// SourceLang is the language translated from. Empty defers to the
	// stored settings.
	SourceLang string `yaml:"source_lang,omitempty" env:"SOURCE_LANG"`
	// DefaultLang is the language assumed for single-language JSON whose
	// language cannot be inferred from the file name.
	DefaultLang string `yaml:"default_lang,omitempty"`
	// FallbackLang is read when a language map lacks the requested one.
	FallbackLang string `yaml:"fallback_lang,omitempty"`
	// MaxChars limits translation length; 0 means no limit.
	MaxChars int `yaml:"max_chars,omitempty"`

	// --- AI provider ---

	Provider   string        `yaml:"provider,omitempty" env:"PROVIDER"`
	Model      string        `yaml:"model,omitempty" env:"MODEL"`
	BaseURL    string        `yaml:"base_url,omitempty" env:"BASE_URL"`
	Timeout    time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
	// Prompt overrides the built-in system prompt.
	Prompt string `yaml:"prompt,omitempty"`
	// APIKey is only read from the environment.
	APIKey string `yaml:"-" env:"API_KEY"`

	// --- storage ---

	// Storage is "file" (default) or "sqlite".
	Storage     string `yaml:"storage,omitempty" env:"STORAGE"`
	StoragePath string `yaml:"storage_path,omitempty" env:"STORAGE_PATH"`

	// TextPrefix names keys of plain text imports (default "line").
	TextPrefix string `yaml:"text_prefix,omitempty"`

	// Rules are glossary rules applied to every project.
	Rules []glossary.Rule `yaml:"rules,omitempty" env:"-"`

	path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultLang: "en",
		MaxRetries:  3,
		Storage:     StorageFile,
		TextPrefix:  "line",
	}
}

// Path returns the file the configuration was read from, or "".
func (c *Config) Path() string {
	return c.path
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads .langsurface.yaml from rootDir, applies environment
// overrides and validates the result.
func Load(rootDir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(rootDir, FileName))
	if err != nil {
		return nil, err
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		if cfg.path != "" {
			return nil, fmt.Errorf("%s: %w", cfg.path, err)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads one YAML file over the defaults. A missing file yields
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Validate normalizes language codes and rules and rejects invalid values.
func (c *Config) Validate() error {
	for _, f := range []*string{&c.SourceLang, &c.DefaultLang, &c.FallbackLang} {
		if *f == "" {
			continue
		}
		if !langcode.IsWellFormed(*f) {
			return fmt.Errorf("invalid language code %q", *f)
		}
		*f = langcode.Normalize(*f)
	}
	if c.MaxChars < 0 {
		return fmt.Errorf("max_chars must not be negative, got %d", c.MaxChars)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider != "" && !slices.Contains(translate.ProviderIDs(), c.Provider) {
		return fmt.Errorf("unknown provider %q (valid: %s)", c.Provider, strings.Join(translate.ProviderIDs(), ", "))
	}
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case "":
		c.Storage = StorageFile
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage %q (valid: %s, %s)", c.Storage, StorageFile, StorageSQLite)
	}
	for i, r := range c.Rules {
		if strings.TrimSpace(r.From) == "" {
			return fmt.Errorf("rule #%d has no from text", i+1)
		}
		c.Rules[i] = r.Normalized()
	}
	if strings.TrimSpace(c.TextPrefix) == "" {
		c.TextPrefix = "line"
	}
	return nil
}

// ErrExists is returned by Init when the file is already present.
var ErrExists = errors.New("config file already exists")

// Init writes a commented starter .langsurface.yaml into rootDir.
func Init(rootDir string) (string, error) {
	path := filepath.Join(rootDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.WriteFile(path, []byte(starter), 0644); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

const starter = `# langsurface configuration
source_lang: en
default_lang: en
# fallback_lang: en
# max_chars: 0

provider: openai
# model: gpt-4.1-mini
# base_url: http://localhost:11434/v1
# timeout: 60s

# storage: file        # or sqlite
# storage_path: ~/.local/share/langsurface

# rules:
#   - source_lang: en
#     target_lang: ja
#     from: "Start"
#     to: "スタート"
`
