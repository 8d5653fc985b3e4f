// Package peerstore keeps the operator's remembered devices: aliases, last
// session times and per-peer session preferences, in a local sqlite
// database.
package peerstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("peer not found")

// Peer is one remembered device.
type Peer struct {
	ID          string
	Alias       string
	LastSession time.Time
	Quality     int // proto.ImageQuality value
	CustomFPS   int // 0 means unset
	Scale       int // view scale percent, 0 means fit
}

// Store manages the remembered-peer database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peer store: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS peers (
			id           TEXT PRIMARY KEY,
			alias        TEXT NOT NULL DEFAULT '',
			last_session INTEGER NOT NULL DEFAULT 0,
			quality      INTEGER NOT NULL DEFAULT 0,
			custom_fps   INTEGER NOT NULL DEFAULT 0,
			scale        INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_peers_last_session ON peers(last_session DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize peer store: %w", err)
	}
	return nil
}

// Save adds or updates a remembered peer.
func (s *Store) Save(p *Peer) error {
	query := `
		INSERT INTO peers (id, alias, last_session, quality, custom_fps, scale)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			alias        = excluded.alias,
			last_session = excluded.last_session,
			quality      = excluded.quality,
			custom_fps   = excluded.custom_fps,
			scale        = excluded.scale
	`
	_, err := s.db.Exec(query, p.ID, p.Alias, p.LastSession.Unix(), p.Quality, p.CustomFPS, p.Scale)
	return err
}

// Get retrieves a remembered peer by device id.
func (s *Store) Get(id string) (*Peer, error) {
	query := `
		SELECT id, alias, last_session, quality, custom_fps, scale
		FROM peers WHERE id = ?
	`
	p := &Peer{}
	var lastSession int64
	err := s.db.QueryRow(query, id).Scan(&p.ID, &p.Alias, &lastSession, &p.Quality, &p.CustomFPS, &p.Scale)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.LastSession = time.Unix(lastSession, 0)
	return p, nil
}

// Touch records a successful session with a peer, creating it if unknown.
func (s *Store) Touch(id string, at time.Time) error {
	query := `
		INSERT INTO peers (id, last_session) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_session = excluded.last_session
	`
	_, err := s.db.Exec(query, id, at.Unix())
	return err
}

// Recent lists up to limit remembered peers, most recent session first.
func (s *Store) Recent(limit int) ([]*Peer, error) {
	query := `
		SELECT id, alias, last_session, quality, custom_fps, scale
		FROM peers ORDER BY last_session DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []*Peer
	for rows.Next() {
		p := &Peer{}
		var lastSession int64
		if err := rows.Scan(&p.ID, &p.Alias, &lastSession, &p.Quality, &p.CustomFPS, &p.Scale); err != nil {
			return nil, err
		}
		p.LastSession = time.Unix(lastSession, 0)
		peers = append(peers, p)
	}
	return peers, rows.Err()
}

// Delete forgets a remembered peer.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM peers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
