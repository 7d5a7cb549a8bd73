package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/pkg/database"
)

// PostgresCounterAllocator implements CounterAllocator with a single UPDATE ... RETURNING
type PostgresCounterAllocator struct {
	pool *pgxpool.Pool
}

// NewPostgresCounterAllocator creates a new PostgresCounterAllocator
func NewPostgresCounterAllocator(pool *pgxpool.Pool) *PostgresCounterAllocator {
	return &PostgresCounterAllocator{pool: pool}
}

// Next increments the event counter; the row lock serialises concurrent callers
func (a *PostgresCounterAllocator) Next(ctx context.Context, eventID string) (int64, error) {
	conn := database.Conn(ctx, a.pool)

	var number int64
	err := conn.QueryRow(ctx, `
		UPDATE event_counters
		SET last_number = last_number + 1
		WHERE event_id = $1
		RETURNING last_number`,
		eventID,
	).Scan(&number)
	if err == nil {
		return number, nil
	}
	if database.IsInvalidText(err) {
		return 0, domain.ErrEventNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return 0, a.missingCounter(ctx, conn, eventID)
}

// Current returns the last number handed out for the event
func (a *PostgresCounterAllocator) Current(ctx context.Context, eventID string) (int64, error) {
	conn := database.Conn(ctx, a.pool)

	var number int64
	err := conn.QueryRow(ctx, `SELECT last_number FROM event_counters WHERE event_id = $1`, eventID).Scan(&number)
	if err == nil {
		return number, nil
	}
	if database.IsInvalidText(err) {
		return 0, domain.ErrEventNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return 0, a.missingCounter(ctx, conn, eventID)
}

// missingCounter tells an unknown event apart from an event that lost its counter
func (a *PostgresCounterAllocator) missingCounter(ctx context.Context, conn database.Querier, eventID string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrCounterMissing
	}
	return domain.ErrEventNotFound
}
