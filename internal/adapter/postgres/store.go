// Package postgres implements the record store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

const schema = `CREATE TABLE IF NOT EXISTS flood_data (
	id            BIGSERIAL PRIMARY KEY,
	city          TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	flood_height  INTEGER NOT NULL CHECK (flood_height BETWEEN 0 AND 8),
	elevation     DOUBLE PRECISION NOT NULL,
	precipitation DOUBLE PRECISION NOT NULL CHECK (precipitation >= 0),
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_prediction BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS flood_data_city_idx ON flood_data (city);`

const observationColumns = `id, city, latitude, longitude, flood_height, elevation,
	precipitation, recorded_at, is_prediction`

// Store reads and writes the flood_data table.
type Store struct {
	db DBTX
}

// NewStore creates a Store over a pool, connection, or transaction.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the flood_data table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// List returns observations matching filter, ordered by id.
func (s *Store) List(ctx context.Context, filter domain.ObservationFilter) ([]domain.FloodObservation, error) {
	query, args := listQuery(filter)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	out := []domain.FloodObservation{}
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}

func listQuery(filter domain.ObservationFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.City != nil {
		args = append(args, string(*filter.City))
		where = append(where, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.IsPrediction != nil {
		args = append(args, *filter.IsPrediction)
		where = append(where, fmt.Sprintf("is_prediction = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(observationColumns)
	b.WriteString(" FROM flood_data")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY id")
	return b.String(), args
}

// scanObservation reads one row in observationColumns order.
func scanObservation(row pgx.Row) (domain.FloodObservation, error) {
	var (
		o    domain.FloodObservation
		city string
	)
	err := row.Scan(
		&o.ID,
		&city,
		&o.Latitude,
		&o.Longitude,
		&o.FloodHeight,
		&o.Elevation,
		&o.Precipitation,
		&o.RecordedAt,
		&o.IsPrediction,
	)
	if err != nil {
		return domain.FloodObservation{}, err
	}
	o.City = domain.City(city)
	o.RecordedAt = o.RecordedAt.UTC()
	return o, nil
}

// Insert writes obs and returns it with the database-assigned id. A zero
// RecordedAt is stamped with the domain clock.
func (s *Store) Insert(ctx context.Context, obs domain.FloodObservation) (domain.FloodObservation, error) {
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = domain.Now()
	}

	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO flood_data (city, latitude, longitude, flood_height, elevation,
		 precipitation, recorded_at, is_prediction)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		string(obs.City),
		obs.Latitude,
		obs.Longitude,
		obs.FloodHeight,
		obs.Elevation,
		obs.Precipitation,
		obs.RecordedAt.UTC().Truncate(time.Microsecond),
		obs.IsPrediction,
	).Scan(&id)
	if err != nil {
		return domain.FloodObservation{}, fmt.Errorf("insert observation: %w", err)
	}

	obs.ID = id
	obs.RecordedAt = obs.RecordedAt.UTC().Truncate(time.Microsecond)
	return obs, nil
}

// Ping checks connectivity, using the pool's Ping when available.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		return p.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
