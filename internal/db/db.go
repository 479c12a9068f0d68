package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/bottles/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DBFile is the database file name inside the base directory.
const DBFile = "bottles.db"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// Init opens the board database at baseDir/bottles.db, creating baseDir and
// its exports directory (both 0700) on first use, and migrates the schema.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.bottles.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "exports")} {
		if err := ensurePrivateDir(dir); err != nil {
			return nil, err
		}
	}

	dbPath := filepath.Join(baseDir, DBFile)
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, step := range []func(*sql.DB) error{verifyWALMode, migrate} {
		if err := step(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	// The file exists once migrate has run.
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// ensurePrivateDir creates dir if needed and restricts it to the owner.
// The chmod is best-effort; not every platform honours it.
func ensurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	_ = os.Chmod(dir, 0700)
	return nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrations[i] moves the schema from user_version i to i+1.
// Append to add a migration; CurrentSchemaVersion must equal len(migrations).
var migrations = []string{
	// v1: board, settings and session rows
	`
	CREATE TABLE IF NOT EXISTS bottles (
	  position INTEGER PRIMARY KEY,
	  id       TEXT NOT NULL,
	  answer   TEXT NOT NULL,
	  level    REAL NOT NULL,
	  color    TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bottles_id ON bottles(id);

	CREATE TABLE IF NOT EXISTS settings (
	  singleton    INTEGER PRIMARY KEY CHECK (singleton = 1),
	  divisions    INTEGER NOT NULL,
	  max_level    REAL NOT NULL,
	  min_level    REAL NOT NULL,
	  global_color TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session (
	  singleton      INTEGER PRIMARY KEY CHECK (singleton = 1),
	  edit_mode      INTEGER NOT NULL,
	  editing_target TEXT,
	  edit_enabled   INTEGER NOT NULL,
	  updated_at     INTEGER NOT NULL
	);`,
}

// migrate applies the migrations past the stored user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := SetUserVersion(db, v+1); err != nil {
			return err
		}
	}
	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
