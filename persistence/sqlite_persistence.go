package persistence

import (
	"database/sql"
	"time"

	"github.com/jrsteele09/go-browserstore/kvstore"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS items (
	key  TEXT PRIMARY KEY,
	data BLOB,
	size INTEGER NOT NULL,
	ts   INTEGER NOT NULL
)`

// SQLite persists key-values to a single SQLite database file, one row per key.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates or opens the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "NewSQLite sql.Open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "NewSQLite db.Ping")
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "NewSQLite %q", pragma)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "NewSQLite schema")
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// Keys returns every stored key in key order.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM items ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, "SQLite.Keys Query")
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "SQLite.Keys Scan")
		}
		keys = append(keys, key)
	}
	return keys, errors.Wrap(rows.Err(), "SQLite.Keys rows")
}

// Write inserts or replaces the row for key.
func (s *SQLite) Write(key string, data *kvstore.ValueItem) error {
	_, err := s.db.Exec(
		`INSERT INTO items (key, data, size, ts) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, size = excluded.size, ts = excluded.ts`,
		key, data.Data, len(data.Data), data.Ts.UnixNano(),
	)
	if err != nil {
		return errors.Wrap(err, "SQLite.Write Exec")
	}
	return nil
}

// Delete removes the row for key. A missing key is not an error.
func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM items WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "SQLite.Delete Exec")
	}
	return nil
}

// Read retrieves the row for key; the data column is only read when readValue is set.
func (s *SQLite) Read(key string, readValue bool) (*kvstore.ValueItem, error) {
	var (
		size int
		ts   int64
		data []byte
		err  error
	)
	if readValue {
		err = s.db.QueryRow(`SELECT size, ts, data FROM items WHERE key = ?`, key).Scan(&size, &ts, &data)
	} else {
		err = s.db.QueryRow(`SELECT size, ts FROM items WHERE key = ?`, key).Scan(&size, &ts)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(kvstore.ErrNotFound, "SQLite.Read %s", key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "SQLite.Read Scan")
	}

	mv := &kvstore.ValueItem{Size: size, Ts: time.Unix(0, ts)}
	if readValue {
		if err := mv.SetData(data); err != nil {
			return nil, errors.Wrap(err, "SQLite.Read SetData")
		}
	}
	return mv, nil
}
