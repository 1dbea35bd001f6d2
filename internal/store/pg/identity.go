// Package pg persists durable identity records in PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"idbridge.org/internal/identity"
)

var _ identity.Repository = (*Store)(nil)

// Store implements the durable identity repository over database/sql.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL through the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle; used by tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Upsert atomically creates or replaces the record keyed by user_id.
// All mutable fields are overwritten and last_seen is refreshed; Postgres
// serializes concurrent upserts for the same key, so the last completed
// writer wins with no partial-field interleaving.
func (s *Store) Upsert(ctx context.Context, rec identity.Record) error {
	if rec.UserID == "" {
		return errors.New("pg: user id is required")
	}
	lastSeen := rec.LastSeen
	if lastSeen.IsZero() {
		lastSeen = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into identity_records
			(user_id, name, first_name, email, office_location, position, roles, graph_token, last_seen)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (user_id) do update set
			name = excluded.name,
			first_name = excluded.first_name,
			email = excluded.email,
			office_location = excluded.office_location,
			position = excluded.position,
			roles = excluded.roles,
			graph_token = excluded.graph_token,
			last_seen = excluded.last_seen`,
		rec.UserID, rec.Name, rec.FirstName, rec.Email, rec.OfficeLocation,
		rec.Position, identity.EncodeRoles(rec.Roles), nullable(rec.GraphToken), lastSeen,
	)
	return err
}

// Find loads the durable record for the user id, or identity.ErrNotFound.
func (s *Store) Find(ctx context.Context, userID string) (*identity.Record, error) {
	if userID == "" {
		return nil, identity.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		select user_id, name, first_name, email, office_location, position, roles, graph_token, last_seen
		from identity_records
		where user_id = $1`, userID)

	var (
		rec        identity.Record
		roles      string
		graphToken sql.NullString
	)
	if err := row.Scan(
		&rec.UserID, &rec.Name, &rec.FirstName, &rec.Email,
		&rec.OfficeLocation, &rec.Position, &roles, &graphToken, &rec.LastSeen,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	rec.Roles = identity.DecodeRoles(roles)
	rec.GraphToken = graphToken.String
	return &rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
