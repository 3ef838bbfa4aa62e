package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phishnheat/threat-intel-service/internal/models"
	"github.com/phishnheat/threat-intel-service/internal/query"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for incidents. The live
// query pipeline never reads it; it exists for historical retention and is
// written best-effort after successful refreshes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the database
// is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// SaveIncidents persists a batch of normalized incidents, skipping rows
// already present. Duplicate detection is enforced by the unique index on
// (url, detected_at), which is compatible with repeated refreshes of the
// same feed window. Returns the number of newly inserted rows.
func (p *PostgresStore) SaveIncidents(ctx context.Context, incidents []models.Incident) (int, error) {
	inserted := 0
	for _, inc := range incidents {
		tag, err := p.pool.Exec(ctx, `
			INSERT INTO incidents(url, latitude, longitude, threat_level, company, country, isp, detected_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (url, COALESCE(detected_at, 'epoch'::timestamptz)) DO NOTHING
		`, inc.URL, inc.Latitude, inc.Longitude, inc.Severity,
			nullable(inc.Company), nullable(inc.Country), nullable(inc.ISP), inc.DetectedAt)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Incidents retrieves stored incidents matching crit, newest first, with
// offset/limit pagination.
func (p *PostgresStore) Incidents(ctx context.Context, crit query.Criteria, limit, offset int) ([]models.Incident, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, url, latitude, longitude, threat_level, company, country, isp, detected_at
		FROM incidents
		WHERE ($1 = '' OR lower(threat_level) = lower($1))
		  AND ($2 = '' OR lower(company)  = lower($2))
		  AND ($3 = '' OR lower(country)  = lower($3))
		  AND ($4 = '' OR lower(isp)      = lower($4))
		ORDER BY ingested_at DESC, id DESC
		LIMIT $5 OFFSET $6
	`, crit.Severity, crit.Company, crit.Country, crit.ISP, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Incident
	for rows.Next() {
		var (
			inc                   models.Incident
			company, country, isp *string
		)
		if err := rows.Scan(&inc.ID, &inc.URL, &inc.Latitude, &inc.Longitude,
			&inc.Severity, &company, &country, &isp, &inc.DetectedAt); err != nil {
			return nil, err
		}
		inc.Company = deref(company)
		inc.Country = deref(country)
		inc.ISP = deref(isp)
		out = append(out, inc)
	}
	return out, rows.Err()
}

// UpsertFetchMetadata records the latest successful fetch for a dataset:
// one row per dataset key, replaced on every refresh.
func (p *PostgresStore) UpsertFetchMetadata(ctx context.Context, datasetKey string, fetchID uuid.UUID, fetchedAt time.Time, recordCount int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO fetch_metadata(dataset_key, fetch_id, fetched_at, record_count)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (dataset_key) DO UPDATE
		SET fetch_id = EXCLUDED.fetch_id,
		    fetched_at = EXCLUDED.fetched_at,
		    record_count = EXCLUDED.record_count
	`, datasetKey, fetchID, fetchedAt, recordCount)
	return err
}

// FetchMetadata returns the last recorded fetch for a dataset, if any.
func (p *PostgresStore) FetchMetadata(ctx context.Context, datasetKey string) (uuid.UUID, time.Time, int, error) {
	var (
		fetchID     uuid.UUID
		fetchedAt   time.Time
		recordCount int
	)
	err := p.pool.QueryRow(ctx, `
		SELECT fetch_id, fetched_at, record_count
		FROM fetch_metadata
		WHERE dataset_key = $1
	`, datasetKey).Scan(&fetchID, &fetchedAt, &recordCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, 0, models.ErrNotFound
	}
	return fetchID, fetchedAt, recordCount, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
