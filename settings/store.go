package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	dataDirName = "langsurface"
	fileName    = "state.json"
	dbName      = "state.db"
)

// Storage kinds accepted by Open.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Backend reads and writes the raw state blob. Load returns nil data when
// nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// DataDir returns the langsurface data directory.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// Open returns the backend of the given kind rooted at dir. An empty dir
// means DataDir(); an empty kind means StorageFile.
func Open(kind, dir string) (Backend, error) {
	if dir == "" {
		d, err := DataDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", StorageFile:
		return NewFileBackend(filepath.Join(dir, fileName)), nil
	case StorageSQLite:
		return OpenSQLite(filepath.Join(dir, dbName))
	default:
		return nil, fmt.Errorf("unknown storage %q (want %s or %s)", kind, StorageFile, StorageSQLite)
	}
}

// ---------------------------------------------------------------------------
// File backend
// ---------------------------------------------------------------------------

// FileBackend stores the blob in one JSON file with 0600 permissions.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the state file path.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}
	return data, nil
}

func (b *FileBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

// ---------------------------------------------------------------------------
// SQLite backend
// ---------------------------------------------------------------------------

// SQLiteBackend stores the blob in a key-value table of a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

const createKV = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createKV); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteBackend{db: db, path: cleanPath}, nil
}

// Path returns the database path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, StateKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return data, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StateKey, data, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads and decodes the state. When the backend holds nothing yet,
// the seeded state is returned and written back.
func Load(ctx context.Context, b Backend) (*State, error) {
	data, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	st, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if data == nil {
		if err := Save(ctx, b, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Save encodes the state and overwrites the stored blob.
func Save(ctx context.Context, b Backend, st *State) error {
	data, err := st.Encode()
	if err != nil {
		return err
	}
	return b.Save(ctx, data)
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// APIKey picks the first non-empty key among the flag value, the
// environment value and the stored setting. source names where it came from.
func APIKey(flagValue, envValue string, st *State) (key, source string) {
	switch {
	case strings.TrimSpace(flagValue) != "":
		return strings.TrimSpace(flagValue), "flag"
	case strings.TrimSpace(envValue) != "":
		return strings.TrimSpace(envValue), "env"
	case st != nil && strings.TrimSpace(st.Settings.OpenAIAPIKey) != "":
		return strings.TrimSpace(st.Settings.OpenAIAPIKey), "settings"
	}
	return "", ""
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
