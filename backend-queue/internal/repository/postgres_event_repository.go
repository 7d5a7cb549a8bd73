package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/pkg/database"
)

const eventColumns = `id, name, pin_hash, is_active, created_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.PinHash,
		&event.IsActive,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidText(err) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// Create inserts the event and its counter in one transaction
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return database.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := database.Conn(ctx, r.pool)

		_, err := conn.Exec(ctx, `
			INSERT INTO events (id, name, pin_hash, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			event.ID,
			event.Name,
			event.PinHash,
			event.IsActive,
			event.CreatedAt,
		)
		if err != nil {
			return err
		}

		_, err = conn.Exec(ctx, `INSERT INTO event_counters (event_id, last_number) VALUES ($1, 0)`, event.ID)
		return err
	})
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

// List retrieves all events, newest first
func (r *PostgresEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC, id`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
