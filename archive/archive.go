// Package archive persists completed missions to SQLite and exports them for
// offline analysis. It implements pipeline.MissionSink.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/downlink-simulator/pipeline"
)

// ErrNotFound reports a lookup for a mission ID the store has never seen.
var ErrNotFound = errors.New("archive: mission not found")

// Mission is a stored mission row.
type Mission struct {
	ID               string
	Kind             string
	CreatedAt        time.Time
	MessageSent      string
	MessageReceived  string
	BER              float64
	SNRdB            float64
	PacketsTotal     int
	PacketsCorrupted int
	Anomalies        []string
	Metadata         map[string]any
}

// Store is a SQLite-backed mission archive. It is safe for concurrent use;
// database/sql serializes access to the single connection SQLite allows.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS missions (
	id                TEXT PRIMARY KEY,
	kind              TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	message_sent      TEXT NOT NULL,
	message_received  TEXT NOT NULL,
	ber               REAL NOT NULL,
	snr_db            REAL NOT NULL,
	packets_total     INTEGER NOT NULL,
	packets_corrupted INTEGER NOT NULL,
	anomalies         TEXT NOT NULL,
	metadata          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_missions_created_at ON missions (created_at);
`

// createdAtLayout is RFC 3339 with fixed-width nanoseconds so the TEXT
// column sorts chronologically. RFC3339Nano trims trailing zeros and does not.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens (creating if needed) the archive at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// SQLite permits one writer; a single pooled connection also keeps
	// ":memory:" databases from silently forking per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveMission stores one mission record and returns its generated ID.
func (s *Store) SaveMission(ctx context.Context, rec pipeline.MissionRecord) (string, error) {
	id := uuid.NewString()

	anomalies, err := json.Marshal(emptyIfNil(rec.Anomalies))
	if err != nil {
		return "", fmt.Errorf("encode anomalies: %w", err)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	kind := rec.Kind
	if kind == "" {
		kind = "transmission"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO missions
			(id, kind, created_at, message_sent, message_received,
			 ber, snr_db, packets_total, packets_corrupted, anomalies, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, kind, time.Now().UTC().Format(createdAtLayout),
		rec.MessageSent, rec.MessageReceived,
		rec.BER, rec.SNRdB, rec.PacketsTotal, rec.PacketsCorrupted,
		string(anomalies), string(metadata),
	)
	if err != nil {
		return "", fmt.Errorf("insert mission: %w", err)
	}
	return id, nil
}

// Get retrieves one mission by ID.
func (s *Store) Get(ctx context.Context, id string) (*Mission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, created_at, message_sent, message_received,
		       ber, snr_db, packets_total, packets_corrupted, anomalies, metadata
		FROM missions WHERE id = ?`, id)

	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, err
}

// List returns the most recent missions, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]*Mission, error) {
	q := `
		SELECT id, kind, created_at, message_sent, message_received,
		       ber, snr_db, packets_total, packets_corrupted, anomalies, metadata
		FROM missions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var missions []*Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMission(row scanner) (*Mission, error) {
	var (
		m         Mission
		createdAt string
		anomalies string
		metadata  string
	)
	if err := row.Scan(&m.ID, &m.Kind, &createdAt, &m.MessageSent, &m.MessageReceived,
		&m.BER, &m.SNRdB, &m.PacketsTotal, &m.PacketsCorrupted, &anomalies, &metadata); err != nil {
		return nil, err
	}

	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	m.CreatedAt = t

	if err := json.Unmarshal([]byte(anomalies), &m.Anomalies); err != nil {
		return nil, fmt.Errorf("decode anomalies: %w", err)
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &m, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
