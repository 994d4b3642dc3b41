// Package sqlitelog persists log entries to a SQLite database. Importing
// it registers the "sqlite" engine type.
package sqlitelog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/engine"
)

// DefaultTable is the table entries land in unless configured otherwise.
const DefaultTable = "log_entries"

// tableNamePattern restricts table names to plain identifiers so the
// configured name can be spliced into DDL safely.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	log.RegisterEngine("sqlite", func(cfg log.Config) (log.Engine, error) {
		return New(cfg)
	})
}

// Engine appends one row per entry to a SQLite table. The table is
// created on construction when absent. Scopes are stored as a JSON array
// so they survive round-trips without a join table.
//
// Options:
//
//	path:  database file path (required)
//	table: table name, a plain identifier (default "log_entries")
type Engine struct {
	engine.Base
	db     *sql.DB
	insert *sql.Stmt
}

// New opens (or creates) the database at the configured path and
// prepares the insert statement.
func New(cfg log.Config) (*Engine, error) {
	opts := engine.Options(cfg.Options)
	path, err := opts.String("path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("sqlitelog: engine requires a path option")
	}
	table, err := opts.String("table", DefaultTable)
	if err != nil {
		return nil, err
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("sqlitelog: invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitelog: open %s: %w", path, err)
	}
	// A single connection serializes writers and sidesteps SQLITE_BUSY
	// for this append-only workload.
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT    NOT NULL,
		level      TEXT    NOT NULL,
		message    TEXT    NOT NULL,
		scopes     TEXT    NOT NULL DEFAULT '[]'
	)`, table)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitelog: create table %s: %w", table, err)
	}

	insert, err := db.Prepare(fmt.Sprintf(
		"INSERT INTO %s (created_at, level, message, scopes) VALUES (?, ?, ?, ?)", table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitelog: prepare insert: %w", err)
	}

	return &Engine{
		Base:   engine.NewBase(cfg),
		db:     db,
		insert: insert,
	}, nil
}

// Write inserts one row. Insert failures are reported on stderr so a
// full disk or locked database cannot take the dispatcher down.
func (e *Engine) Write(level log.Level, message string, scopes []string) {
	encoded := "[]"
	if len(scopes) > 0 {
		raw, err := json.Marshal(scopes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqlitelog: encode scopes: %v\n", err)
			return
		}
		encoded = string(raw)
	}
	created := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := e.insert.Exec(created, level.String(), message, encoded); err != nil {
		fmt.Fprintf(os.Stderr, "sqlitelog: insert: %v\n", err)
	}
}

// Close releases the prepared statement and the database handle.
func (e *Engine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	var errs []error
	if e.insert != nil {
		if err := e.insert.Close(); err != nil {
			errs = append(errs, err)
		}
		e.insert = nil
	}
	if err := e.db.Close(); err != nil {
		errs = append(errs, err)
	}
	e.db = nil
	return errors.Join(errs...)
}
