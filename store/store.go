// Package store keeps named chunks in a SQLite database so that chunks built
// once can be listed and run again by name.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/cayo/pkg/bytecode"
)

// ErrChunkNotFound indicates the requested chunk doesn't exist
var ErrChunkNotFound = errors.New("chunk not found")

// ErrEmptyName is returned when a chunk name is blank.
var ErrEmptyName = errors.New("chunk name is empty")

// Entry describes a stored chunk without decoding it.
type Entry struct {
	Name         string
	Instructions int
	Constants    int
	Saved        time.Time
}

// Store handles SQLite storage for chunks. Chunks are stored in their
// canonical CBOR encoding.
type Store struct {
	db   *sql.DB
	path string
	log  commonlog.Logger
	mu   sync.Mutex
}

// Open opens or creates the chunk database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		name         TEXT PRIMARY KEY,
		data         BLOB NOT NULL,
		instructions INTEGER NOT NULL,
		constants    INTEGER NOT NULL,
		saved_at     INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path, log: commonlog.GetLogger("cayo.store")}, nil
}

// Path returns the database path given to Open.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores c under name, replacing any chunk already stored there.
func (s *Store) Put(name string, c *bytecode.Chunk) error {
	if name == "" {
		return ErrEmptyName
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid chunk %s: %w", name, err)
	}
	data, err := bytecode.MarshalChunk(c)
	if err != nil {
		return fmt.Errorf("encoding chunk %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chunks (name, data, instructions, constants, saved_at) VALUES (?, ?, ?, ?, ?)",
		name, data, c.Len(), c.ConstantCount(), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk %s: %w", name, err)
	}

	s.log.Debugf("saved chunk %s (%d bytes)", name, len(data))
	return nil
}

// Get loads the chunk stored under name.
func (s *Store) Get(name string) (*bytecode.Chunk, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM chunks WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, name)
		}
		return nil, fmt.Errorf("querying chunk %s: %w", name, err)
	}

	c, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", name, err)
	}
	return c, nil
}

// List returns all stored chunks ordered by name.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT name, instructions, constants, saved_at FROM chunks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			saved int64
		)
		if err := rows.Scan(&e.Name, &e.Instructions, &e.Constants, &saved); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		e.Saved = time.Unix(0, saved)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the chunk stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM chunks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting chunk %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting chunk %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrChunkNotFound, name)
	}
	return nil
}
