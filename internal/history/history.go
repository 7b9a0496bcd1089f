// Package history persists playback state transitions to a local
// sqlite database so the API can answer "what played when" without
// asking the media server.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hautomata/jellybridge/internal/paths"
)

// Event is one recorded playback transition.
type Event struct {
	ID         int64     `json:"id"`
	DeviceKey  string    `json:"device_key"`
	DeviceName string    `json:"device_name"`
	Client     string    `json:"client"`
	Username   string    `json:"username,omitempty"`
	State      string    `json:"state"`
	ItemID     string    `json:"item_id,omitempty"`
	ItemName   string    `json:"item_name,omitempty"`
	ItemType   string    `json:"item_type,omitempty"`
	PositionS  float64   `json:"position_seconds"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store is the playback history database handle.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at the default location.
func Open() (*Store, error) {
	dbPath, err := paths.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history path: %w", err)
	}
	return OpenPath(dbPath)
}

// OpenPath opens or creates the database at a specific path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL keeps the socket goroutine's writes from blocking API reads.
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// OpenInMemory opens an in-memory database for testing.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	s := &Store{db: db, path: ":memory:"}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS playback_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_key TEXT NOT NULL,
	device_name TEXT NOT NULL,
	client TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL,
	item_id TEXT NOT NULL DEFAULT '',
	item_name TEXT NOT NULL DEFAULT '',
	item_type TEXT NOT NULL DEFAULT '',
	position_seconds REAL NOT NULL DEFAULT 0,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_device_time
	ON playback_events(device_key, recorded_at);

CREATE INDEX IF NOT EXISTS idx_events_time
	ON playback_events(recorded_at);
`)
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Record inserts an event. RecordedAt defaults to now.
func (s *Store) Record(e Event) error {
	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
INSERT INTO playback_events
	(device_key, device_name, client, username, state, item_id, item_name, item_type, position_seconds, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DeviceKey, e.DeviceName, e.Client, e.Username, e.State,
		e.ItemID, e.ItemName, e.ItemType, e.PositionS, recordedAt)
	if err != nil {
		return fmt.Errorf("recording playback event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(`
SELECT id, device_key, device_name, client, username, state, item_id, item_name, item_type, position_seconds, recorded_at
FROM playback_events
ORDER BY recorded_at DESC, id DESC
LIMIT ?`, limit)
}

// ForDevice returns the newest events for one device, most recent first.
func (s *Store) ForDevice(deviceKey string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(`
SELECT id, device_key, device_name, client, username, state, item_id, item_name, item_type, position_seconds, recorded_at
FROM playback_events
WHERE device_key = ?
ORDER BY recorded_at DESC, id DESC
LIMIT ?`, deviceKey, limit)
}

// Count returns the total number of stored events.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM playback_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting playback events: %w", err)
	}
	return count, nil
}

// Prune deletes events older than the cutoff and returns how many rows
// were removed.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM playback_events WHERE recorded_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("pruning playback events: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(q string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying playback events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.DeviceKey, &e.DeviceName, &e.Client, &e.Username,
			&e.State, &e.ItemID, &e.ItemName, &e.ItemType, &e.PositionS, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning playback event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
