// Package registry is the read side of farmer registration plus the agrovet
// directory, backed by SQLite. The dialogue core treats registration as an
// external, read-only lookup; registration writes exist so operators can seed
// and maintain the directory.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agriaid/agriaid/core"
)

// Agrovet is one directory entry for an agricultural supply center.
type Agrovet struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Ward     string  `json:"ward"`
	County   string  `json:"county"`
	Contact  string  `json:"contact"`
	Services string  `json:"services"`
	Rating   float64 `json:"rating"`
}

// Store is a SQLite-backed registration and agrovet directory store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		// Pragma syntax for the modernc driver; mattn-style short
		// parameters are silently ignored.
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS farmers (
		phone TEXT PRIMARY KEY,
		ward TEXT NOT NULL,
		county TEXT NOT NULL,
		lat REAL NOT NULL DEFAULT 0,
		lon REAL NOT NULL DEFAULT 0,
		registered_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agrovets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		ward TEXT NOT NULL,
		county TEXT NOT NULL,
		contact TEXT NOT NULL,
		services TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_agrovets_ward ON agrovets(ward);
	CREATE INDEX IF NOT EXISTS idx_agrovets_county ON agrovets(county);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RegisterFarmer inserts or replaces a farmer's registered location. The
// phone number is normalized to +254 form before storage.
func (s *Store) RegisterFarmer(ctx context.Context, reg core.Registration) error {
	phone := core.NormalizePhone(reg.FarmerID)
	if phone == "" {
		return fmt.Errorf("farmer id is required")
	}
	registeredAt := reg.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO farmers (phone, ward, county, lat, lon, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			ward = excluded.ward,
			county = excluded.county,
			lat = excluded.lat,
			lon = excluded.lon`,
		phone, reg.Ward, reg.County, reg.Lat, reg.Lon, registeredAt.Unix())
	if err != nil {
		return fmt.Errorf("register farmer: %w", err)
	}
	return nil
}

// GetRegistration implements core.RegistrationLookup.
func (s *Store) GetRegistration(ctx context.Context, farmerID string) (*core.Registration, error) {
	phone := core.NormalizePhone(farmerID)
	row := s.db.QueryRowContext(ctx, `
		SELECT phone, ward, county, lat, lon, registered_at
		FROM farmers WHERE phone = ?`, phone)

	var reg core.Registration
	var registeredAt int64
	err := row.Scan(&reg.FarmerID, &reg.Ward, &reg.County, &reg.Lat, &reg.Lon, &registeredAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("scan farmer row: %w", err)
	}
	reg.RegisteredAt = time.Unix(registeredAt, 0)
	return &reg, nil
}

// AddAgrovet inserts a directory entry.
func (s *Store) AddAgrovet(ctx context.Context, a Agrovet) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agrovets (name, ward, county, contact, services, rating)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, a.Ward, a.County, core.NormalizePhone(a.Contact), a.Services, a.Rating)
	if err != nil {
		return 0, fmt.Errorf("add agrovet: %w", err)
	}
	return res.LastInsertId()
}

// AgrovetsNear returns directory entries for the ward ordered by rating,
// falling back to the county when the ward has none. Matching is
// case-insensitive.
func (s *Store) AgrovetsNear(ctx context.Context, ward, county string, limit int) ([]Agrovet, error) {
	if limit <= 0 {
		limit = 3
	}
	byWard, err := s.queryAgrovets(ctx, `ward = ? COLLATE NOCASE`, strings.TrimSpace(ward), limit)
	if err != nil {
		return nil, err
	}
	if len(byWard) > 0 || county == "" {
		return byWard, nil
	}
	return s.queryAgrovets(ctx, `county = ? COLLATE NOCASE`, strings.TrimSpace(county), limit)
}

func (s *Store) queryAgrovets(ctx context.Context, where, value string, limit int) ([]Agrovet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ward, county, contact, services, rating
		FROM agrovets WHERE `+where+` ORDER BY rating DESC, name ASC LIMIT ?`, value, limit)
	if err != nil {
		return nil, fmt.Errorf("query agrovets: %w", err)
	}
	defer rows.Close()

	var out []Agrovet
	for rows.Next() {
		var a Agrovet
		if err := rows.Scan(&a.ID, &a.Name, &a.Ward, &a.County, &a.Contact, &a.Services, &a.Rating); err != nil {
			return nil, fmt.Errorf("scan agrovet row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
