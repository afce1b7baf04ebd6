package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	connectMaxElapsed = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

// Open connects to Postgres and waits until the server answers a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = connectMaxElapsed

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}

	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
