package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"quickcourt/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection and an in-memory catalog of facilities
// and courts. The catalog is loaded from config at startup; bookings are
// the only rows mutated at request time.
type DB struct {
	*sql.DB

	mu         sync.RWMutex
	facilities map[int64]*models.Facility
	courts     map[int64]*models.Court

	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// avoids spurious SQLITE_BUSY under concurrent bookings.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{
		DB:         conn,
		facilities: make(map[int64]*models.Facility),
		courts:     make(map[int64]*models.Court),
		logger:     logger,
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS facilities (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            total_bookings INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS courts (
            id INTEGER PRIMARY KEY,
            facility_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            total_bookings INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            user_id INTEGER NOT NULL,
            facility_id INTEGER NOT NULL,
            court_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            start_minutes INTEGER NOT NULL,
            end_minutes INTEGER NOT NULL,
            base_price REAL NOT NULL,
            peak_multiplier REAL NOT NULL DEFAULT 1,
            total_amount REAL NOT NULL,
            currency TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            payment_status TEXT NOT NULL DEFAULT 'pending',
            order_id TEXT,
            transaction_id TEXT,
            paid_amount REAL NOT NULL DEFAULT 0,
            paid_at DATETIME,
            refund_amount REAL NOT NULL DEFAULT 0,
            refunded_at DATETIME,
            status TEXT NOT NULL DEFAULT 'pending',
            cancelled_at DATETIME,
            cancelled_by INTEGER,
            cancel_reason TEXT,
            cancel_refund REAL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_court_date ON bookings(court_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_facility_date ON bookings(facility_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_payment_status ON bookings(payment_status)`,

		// Backstop for the exact-duplicate case; overlapping but unequal
		// windows are rejected by the re-check inside CreateBookingIfFree.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot
            ON bookings(court_id, date, start_minutes, end_minutes)
            WHERE status IN ('pending', 'confirmed')`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SyncCatalog upserts the configured facilities and courts and refreshes
// the in-memory catalog used by pricing and availability lookups.
func (db *DB) SyncCatalog(facilities []*models.Facility, courts []*models.Court) error {
	for _, f := range facilities {
		_, err := db.Exec(
			`INSERT INTO facilities (id, name) VALUES (?, ?)
             ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = CURRENT_TIMESTAMP`,
			f.ID, f.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to sync facility %d: %w", f.ID, err)
		}
	}
	for _, c := range courts {
		_, err := db.Exec(
			`INSERT INTO courts (id, facility_id, name) VALUES (?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET facility_id = excluded.facility_id,
                 name = excluded.name, updated_at = CURRENT_TIMESTAMP`,
			c.ID, c.FacilityID, c.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to sync court %d: %w", c.ID, err)
		}
	}

	db.mu.Lock()
	db.facilities = make(map[int64]*models.Facility, len(facilities))
	for _, f := range facilities {
		db.facilities[f.ID] = f
	}
	db.courts = make(map[int64]*models.Court, len(courts))
	for _, c := range courts {
		db.courts[c.ID] = c
	}
	db.mu.Unlock()

	return nil
}

func (db *DB) GetFacility(id int64) (*models.Facility, error) {
	db.mu.RLock()
	f, ok := db.facilities[id]
	db.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrFacilityNotFound, id)
	}
	return f, nil
}

func (db *DB) GetCourt(id int64) (*models.Court, error) {
	db.mu.RLock()
	c, ok := db.courts[id]
	db.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCourtNotFound, id)
	}
	return c, nil
}

func (db *DB) ListCourts(facilityID int64) []*models.Court {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var courts []*models.Court
	for _, c := range db.courts {
		if facilityID == 0 || c.FacilityID == facilityID {
			courts = append(courts, c)
		}
	}
	sort.Slice(courts, func(i, j int) bool { return courts[i].ID < courts[j].ID })
	return courts
}

func (db *DB) Close() error {
	return db.DB.Close()
}
