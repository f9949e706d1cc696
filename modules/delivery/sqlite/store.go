package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// store implements delivery.Store on top of a SQLite database.
type store struct {
	db *sql.DB
}

// Create implements delivery.Store.
func (s *store) Create(rec delivery.Record) error {
	return s.upsert(rec)
}

// Update implements delivery.Store.
func (s *store) Update(rec delivery.Record) error {
	return s.upsert(rec)
}

func (s *store) upsert(rec delivery.Record) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO delivery_records
			(id, channel, recipient_id, attempts, last_status, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Channel), rec.RecipientID,
		rec.Attempts, string(rec.LastStatus), rec.LastError,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: store delivery record %s: %w", rec.ID, err)
	}
	return nil
}

// Get implements delivery.Store.
func (s *store) Get(id string) (delivery.Record, bool) {
	row := s.db.QueryRow(`
		SELECT id, channel, recipient_id, attempts, last_status, last_error, created_at, updated_at
		FROM delivery_records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err != nil {
		return delivery.Record{}, false
	}
	return rec, true
}

// Recent implements delivery.Store.
func (s *store) Recent(n int) ([]delivery.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, channel, recipient_id, attempts, last_status, last_error, created_at, updated_at
		FROM delivery_records ORDER BY updated_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query recent deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []delivery.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan delivery record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate delivery records: %w", err)
	}
	return out, nil
}

// Prune implements delivery.Store.
func (s *store) Prune(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(
		"DELETE FROM delivery_records WHERE updated_at < ?",
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune delivery records: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (delivery.Record, error) {
	var (
		rec                  delivery.Record
		channel, status      string
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &channel, &rec.RecipientID, &rec.Attempts,
		&status, &rec.LastError, &createdAt, &updatedAt); err != nil {
		return delivery.Record{}, err
	}

	rec.Channel = event.ChannelID(channel)
	rec.LastStatus = delivery.Status(status)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return rec, nil
}
