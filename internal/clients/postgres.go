package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
)

const postgresProbeName = "postgres"

// dbPinger abstracts the pgxpool.Pool methods used in Probe so that tests
// can inject a fake without standing up a real database.
type dbPinger interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresClient wraps a pgx connection pool with a circuit breaker. It is
// used by `roadmapctl check` and the deep health endpoint to verify the
// database is reachable and has been migrated.
type PostgresClient struct {
	databaseURL string
	cb          *gobreaker.CircuitBreaker
	connect     func(ctx context.Context, databaseURL string) (dbPinger, error)
}

// NewPostgresClient creates a PostgresClient that lazily opens a pgx pool on
// each Probe. The circuit breaker is applied around each probe attempt. No
// connection is made at construction time.
func NewPostgresClient(databaseURL string, cb *gobreaker.CircuitBreaker) *PostgresClient {
	return &PostgresClient{
		databaseURL: databaseURL,
		cb:          cb,
		connect:     realConnect,
	}
}

// Probe pings the database and verifies the schema_migrations ledger exists,
// returning the number of recorded migrations in the probe detail. It wraps
// the check in the circuit breaker so persistent failures trip it after three
// consecutive errors.
func (c *PostgresClient) Probe(ctx context.Context) bootstrap.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.connect(ctx, c.databaseURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}

		var count int
		err = pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM schema_migrations;`).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("schema_migrations ledger: %w", err)
		}
		return count, nil
	})

	result := bootstrap.ProbeResult{
		Name:      postgresProbeName,
		OK:        err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func realConnect(ctx context.Context, databaseURL string) (dbPinger, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return pool, nil
}
