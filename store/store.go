// Package store persists lists in an embedded SQLite database.
//
// Each list element is one row of list_items: (id, key, value,
// position). The logical order of a list is ascending position; smaller
// positions are nearer the head. Positions are not dense or
// zero-anchored — pushes extend the current extrema, so a list that has
// only ever been left-pushed lives entirely at negative positions.
//
// The Store carries a single process-wide mutex. Primitive methods do
// not lock by themselves; the command layer takes the lock around the
// whole primitive sequence of a command so the view stays consistent.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Direction selects which end of a list an operation works on.
type Direction int

const (
	Left Direction = iota
	Right
)

const schemaVersion = "1"

// Store is the shared list store. All access must happen while holding
// the store lock.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// database/sql pools connections; with the sqlite driver each pool
	// connection is a separate database handle, and for ":memory:" a
	// separate database. The store is serialized behind one mutex
	// anyway, so pin the pool to a single connection.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lock acquires the exclusive store lock.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the exclusive store lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// Setup applies the schema and verifies the on-disk version marker. A
// fresh database gets the marker inserted; a marker holding anything
// other than the supported version is a fatal condition and Setup
// returns an error the caller must treat as unrecoverable.
func (s *Store) Setup() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS blueis (id INTEGER PRIMARY KEY AUTOINCREMENT, key TEXT, value TEXT)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS blueis_key ON blueis(key)`,
		`CREATE TABLE IF NOT EXISTS list_items (id INTEGER PRIMARY KEY AUTOINCREMENT, key BLOB, value BLOB, position INTEGER)`,
		`CREATE INDEX IF NOT EXISTS list_items_key ON list_items(key, position)`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	var version string
	err := s.db.QueryRow(`SELECT value FROM blueis WHERE key = 'version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`INSERT INTO blueis (key, value) VALUES ('version', ?)`, schemaVersion)
		return err
	case err != nil:
		return err
	case version != schemaVersion:
		return fmt.Errorf("database version %q is not supported (want %q)", version, schemaVersion)
	}

	return nil
}

// Count returns the number of elements stored under key.
func (s *Store) Count(key []byte) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM list_items WHERE key = ?`, key).Scan(&count)
	return count, err
}

// Boundaries returns the minimum and maximum position for key. ok is
// false when the key holds no elements, in which case first and last
// are meaningless.
func (s *Store) Boundaries(key []byte) (first, last int64, ok bool, err error) {
	var min, max sql.NullInt64
	err = s.db.QueryRow(`SELECT MIN(position), MAX(position) FROM list_items WHERE key = ?`, key).Scan(&min, &max)
	if err != nil {
		return 0, 0, false, err
	}
	if !min.Valid {
		return 0, 0, false, nil
	}
	return min.Int64, max.Int64, true, nil
}

// Push inserts values at the given end of key's list, in argument
// order. Each insert computes its position from the current extremum,
// so pushing several values to the left stores them at successively
// smaller positions. The whole group is one transaction.
func (s *Store) Push(key []byte, direction Direction, values [][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextPosition string
	switch direction {
	case Left:
		nextPosition = "coalesce(MIN(position), 0) - 1"
	case Right:
		nextPosition = "coalesce(MAX(position), 0) + 1"
	}

	// The aggregate subquery always yields exactly one row, even for a
	// key with no elements, so this works for fresh keys too.
	statement, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO list_items (key, value, position) SELECT ?, ?, %s FROM list_items WHERE key = ?`,
		nextPosition))
	if err != nil {
		return err
	}
	defer statement.Close()

	for _, value := range values {
		if _, err := statement.Exec(key, value, key); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Pop removes and returns the element nearest the given end of key's
// list. ok is false when the key holds no elements.
func (s *Store) Pop(key []byte, direction Direction) (value []byte, ok bool, err error) {
	order := "ASC"
	if direction == Right {
		order = "DESC"
	}

	var id int64
	err = s.db.QueryRow(fmt.Sprintf(
		`SELECT id, value FROM list_items WHERE key = ? ORDER BY position %s LIMIT 1`, order),
		key).Scan(&id, &value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if _, err := s.db.Exec(`DELETE FROM list_items WHERE id = ?`, id); err != nil {
		return nil, false, err
	}

	return value, true, nil
}

// DeleteOutside removes every element of key whose position is strictly
// below lo or strictly above hi.
func (s *Store) DeleteOutside(key []byte, lo, hi int64) error {
	_, err := s.db.Exec(`DELETE FROM list_items WHERE key = ? AND (position < ? OR position > ?)`, key, lo, hi)
	return err
}

// RangeAll returns every value of key in position order.
func (s *Store) RangeAll(key []byte) ([][]byte, error) {
	return s.queryValues(`SELECT value FROM list_items WHERE key = ? ORDER BY position`, key)
}

// RangeHead returns the n values of key nearest the head, in position
// order.
func (s *Store) RangeHead(key []byte, n int64) ([][]byte, error) {
	return s.queryValues(`SELECT value FROM list_items WHERE key = ? ORDER BY position LIMIT ?`, key, n)
}

// RangeBetween returns the values of key with position in [lo, hi], in
// position order.
func (s *Store) RangeBetween(key []byte, lo, hi int64) ([][]byte, error) {
	return s.queryValues(
		`SELECT value FROM list_items WHERE key = ? AND position >= ? AND position <= ? ORDER BY position`,
		key, lo, hi)
}

// ValueAt returns the value of key stored exactly at position. ok is
// false when no element sits there.
func (s *Store) ValueAt(key []byte, position int64) (value []byte, ok bool, err error) {
	err = s.db.QueryRow(
		`SELECT value FROM list_items WHERE key = ? AND position = ? LIMIT 1`,
		key, position).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// SetValueAt replaces the value stored at position. The element's
// position is unchanged; replacing a position nothing sits at is a
// silent no-op, so callers must range-check against Boundaries first.
func (s *Store) SetValueAt(key []byte, position int64, value []byte) error {
	_, err := s.db.Exec(`UPDATE list_items SET value = ? WHERE key = ? AND position = ?`, value, key, position)
	return err
}

func (s *Store) queryValues(query string, args ...interface{}) ([][]byte, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := [][]byte{}
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// Translate maps a Redis-style index to a position value given the
// current boundaries. Index 0 is the head element, -1 the tail, -2 one
// before the tail.
func Translate(first, last, index int64) int64 {
	if index < 0 {
		return index + last + 1
	}
	return index + first
}
