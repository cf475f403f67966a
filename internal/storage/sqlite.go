//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"banditd/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, event model.Event) (model.Event, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Event{}, err
	}
	if err := checkVersion(event.VersionedRecord); err != nil {
		return model.Event{}, err
	}

	payload, err := EncodeEvent(event)
	if err != nil {
		return model.Event{}, err
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO events (instance_id, kind, op, schema_version, codec_version, at_unix_nano, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.InstanceID, string(event.Kind), string(event.Op), event.SchemaVersion, event.CodecVersion, event.At.UnixNano(), payload)
	if err != nil {
		return model.Event{}, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	event.Seq = seq
	return event, nil
}

func (s *SQLiteStore) Events(ctx context.Context, instanceID string, limit int) ([]model.Event, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT seq, payload FROM events WHERE instance_id = ? ORDER BY seq DESC`
	args := []any{instanceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, err
		}
		event, err := DecodeEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", seq, err)
		}
		event.Seq = seq
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			op TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			at_unix_nano INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS events_instance_idx ON events (instance_id, seq);
	`)
	return err
}
