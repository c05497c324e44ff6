package eventsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/pkg/logger"
)

const defaultRawEventsQuery = `SELECT payload FROM raw_events ORDER BY received_at, id`

// PostgresSource reads raw feed payloads stored as jsonb in raw_events.
type PostgresSource struct {
	pool  *pgxpool.Pool
	query string
	owned bool
}

// PostgresOption applies a configuration option to the PostgresSource.
type PostgresOption func(*PostgresSource)

// WithQuery replaces the payload query. It must select one json column.
func WithQuery(q string) PostgresOption {
	return func(s *PostgresSource) {
		if q != "" {
			s.query = q
		}
	}
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresSource {
	s := &PostgresSource{pool: pool, query: defaultRawEventsQuery}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects to databaseURL and returns a source owning the pool.
func OpenPostgres(ctx context.Context, databaseURL string, opts ...PostgresOption) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := NewPostgresSource(pool, opts...)
	s.owned = true
	return s, nil
}

// Name implements Source.
func (s *PostgresSource) Name() string {
	return "postgres"
}

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) ([]model.RawEvent, error) {
	rows, err := s.pool.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%w: query raw events: %v", ErrSourceLoad, err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var p []byte
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%w: scan raw event: %v", ErrSourceLoad, err)
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceLoad, err)
	}

	events, skipped := DecodePayloads(payloads)
	if skipped > 0 {
		logger.Get().Named("eventsource").Warn(ctx, "skipped undecodable raw events",
			logger.Int("skipped", skipped),
			logger.Int("loaded", len(events)),
		)
	}
	return events, nil
}

// Close releases the pool when the source opened it.
func (s *PostgresSource) Close() {
	if s.owned {
		s.pool.Close()
	}
}
