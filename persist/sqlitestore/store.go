// Package sqlitestore persists serialize.Dump snapshots to disk over
// database/sql: a single-writer connection pool, WAL journaling, and
// idempotent schema application.
package sqlitestore

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/adalundhe/qgraph/graph"
	"github.com/adalundhe/qgraph/serialize"
	_ "github.com/mattn/go-sqlite3"
)

func validityFromInt(v int) graph.Validity {
	return graph.Validity(v)
}

//go:embed schema.sql
var schemaSQL string

// Store is a durable backend for named serialize.Dump snapshots.
type Store struct {
	db *sql.DB
}

// Open creates or opens a sqlite database at path, applying pragmas and the
// schema. Idempotent - safe to call against an existing file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: connect %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlitestore: exec %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type row struct {
	Class     string
	Query     []byte
	Value     []byte
	Validity  int
	LocalDeps string
	Transient string
}

// Save replaces any existing dump stored under id with dump's entries, in a
// single transaction so readers never observe a partial snapshot.
func (s *Store) Save(id string, dump *serialize.Dump) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dumps WHERE dump_id = ?`, id); err != nil {
		return fmt.Errorf("sqlitestore: clear %s: %w", id, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO dumps (dump_id, seq, class, query, value, validity, local_deps, transient)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range dump.Entries {
		localDeps, err := json.Marshal(e.LocalDeps)
		if err != nil {
			return fmt.Errorf("sqlitestore: encode local deps: %w", err)
		}
		transient, err := json.Marshal(e.TransientDeps)
		if err != nil {
			return fmt.Errorf("sqlitestore: encode transient deps: %w", err)
		}
		if _, err := stmt.Exec(id, i, e.Class, e.Query, e.Value, int(e.Validity), string(localDeps), string(transient)); err != nil {
			return fmt.Errorf("sqlitestore: insert entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load reconstructs the Dump stored under id, ordered by sequence.
func (s *Store) Load(id string) (*serialize.Dump, error) {
	rows, err := s.db.Query(`
		SELECT class, query, value, validity, local_deps, transient
		FROM dumps WHERE dump_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query %s: %w", id, err)
	}
	defer rows.Close()

	dump := &serialize.Dump{}
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.Class, &r.Query, &r.Value, &r.Validity, &r.LocalDeps, &r.Transient); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan row: %w", err)
		}

		var localDeps []int
		if err := json.Unmarshal([]byte(r.LocalDeps), &localDeps); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode local deps: %w", err)
		}
		var transient []serialize.TransientDep
		if err := json.Unmarshal([]byte(r.Transient), &transient); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode transient deps: %w", err)
		}

		dump.Entries = append(dump.Entries, serialize.Entry{
			Class:         r.Class,
			Query:         r.Query,
			Value:         r.Value,
			Validity:      validityFromInt(r.Validity),
			LocalDeps:     localDeps,
			TransientDeps: transient,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate rows: %w", err)
	}

	return dump, nil
}

// Delete removes the dump stored under id, if any.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM dumps WHERE dump_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", id, err)
	}
	return nil
}

// IDs lists every distinct dump id currently stored.
func (s *Store) IDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT dump_id FROM dumps`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
