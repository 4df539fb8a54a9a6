// Package localstore persists bookings, mechanics and deals in a local
// sqlite file for deployments that run without a remote record store. It
// implements the same collaborator interfaces as the remote client.
package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// DB wraps sql.DB for the local record store.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// Open opens the database at path and runs migrations.
func Open(path string, logger *zerolog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS mechanics (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			mechanic TEXT NOT NULL,
			service_type TEXT NOT NULL,
			start_time TEXT,
			duration_hours REAL,
			customer_label TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_mechanic_date ON bookings(mechanic, date)`,

		`CREATE TABLE IF NOT EXISTS deals (
			id TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			bike TEXT NOT NULL DEFAULT '',
			technician TEXT NOT NULL,
			status TEXT NOT NULL,
			open_date TEXT NOT NULL DEFAULT '',
			value REAL NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			close_date TEXT NOT NULL DEFAULT '',
			closed_outcome TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// SeedMechanics inserts mechanics that are not present yet, keyed by name.
func (db *DB) SeedMechanics(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := db.ExecContext(ctx,
			"INSERT OR IGNORE INTO mechanics (id, name) VALUES (?, ?)",
			uuid.NewString(), name,
		)
		if err != nil {
			return fmt.Errorf("seed mechanic %q: %w", name, err)
		}
	}
	return nil
}

// ListMechanics returns all mechanics ordered by name.
func (db *DB) ListMechanics(ctx context.Context) ([]model.Mechanic, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM mechanics ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list mechanics: %w", err)
	}
	defer rows.Close()

	var mechanics []model.Mechanic
	for rows.Next() {
		var m model.Mechanic
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan mechanic: %w", err)
		}
		mechanics = append(mechanics, m)
	}
	return mechanics, rows.Err()
}

// ListBookings returns bookings with dates in [from, to]. Rows that fail to
// scan are skipped rather than failing the load; a corrupted record behaves
// like an absent one.
func (db *DB) ListBookings(ctx context.Context, from, to string) ([]model.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, mechanic, service_type, start_time, duration_hours, customer_label, notes
		FROM bookings WHERE date >= ? AND date <= ? ORDER BY date, start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			if db.logger != nil {
				db.logger.Warn().Err(err).Msg("skipping malformed booking row")
			}
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(rows *sql.Rows) (model.Booking, error) {
	var b model.Booking
	var startTime sql.NullString
	var duration sql.NullFloat64
	err := rows.Scan(&b.ID, &b.Date, &b.Mechanic, &b.ServiceType, &startTime, &duration, &b.CustomerLabel, &b.Notes)
	if err != nil {
		return model.Booking{}, err
	}
	b.StartTime = startTime.String
	b.DurationHours = duration.Float64
	return b, nil
}

// CreateBooking stores a booking under a freshly assigned id.
func (db *DB) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	b.ID = uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings (id, date, mechanic, service_type, start_time, duration_hours, customer_label, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, b.Mechanic, b.ServiceType, b.StartTime, b.DurationHours, b.CustomerLabel, b.Notes,
	)
	if err != nil {
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

// UpdateBooking replaces the booking with the given id.
func (db *DB) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET date = ?, mechanic = ?, service_type = ?, start_time = ?, duration_hours = ?,
		    customer_label = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		b.Date, b.Mechanic, b.ServiceType, b.StartTime, b.DurationHours, b.CustomerLabel, b.Notes, id,
	)
	if err != nil {
		return model.Booking{}, fmt.Errorf("update booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Booking{}, fmt.Errorf("booking %s not found", id)
	}
	b.ID = id
	return b, nil
}

// DeleteBooking removes the booking with the given id.
func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}
