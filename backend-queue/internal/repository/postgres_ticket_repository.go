package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/pkg/database"
)

const ticketColumns = `id, event_id, number, name, status, created_at`

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool     *pgxpool.Pool
	counters CounterAllocator
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool, counters CounterAllocator) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool, counters: counters}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	ticket := &domain.Ticket{}
	var status string
	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Number,
		&ticket.Name,
		&status,
		&ticket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidText(err) {
			return nil, nil
		}
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	return ticket, nil
}

// Create allocates a number and inserts the ticket in one transaction.
// A failed insert rolls the increment back.
func (r *PostgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return database.WithTx(ctx, r.pool, func(ctx context.Context) error {
		number, err := r.counters.Next(ctx, ticket.EventID)
		if err != nil {
			return err
		}

		_, err = database.Conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO tickets (id, event_id, number, name, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ticket.ID,
			ticket.EventID,
			number,
			ticket.Name,
			string(ticket.Status),
			ticket.CreatedAt,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return domain.ErrEventNotFound
			}
			if database.IsUniqueViolation(err) {
				return domain.ErrCounterMissing
			}
			return err
		}

		ticket.Number = number
		return nil
	})
}

// GetByID retrieves a ticket by ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

// ListByEvent retrieves every ticket of an event ordered by number
func (r *PostgresTicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY number ASC`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, eventID)
	if err != nil {
		if database.IsInvalidText(err) {
			return []*domain.Ticket{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Patch updates the ticket only while its current status is in allowedFrom
func (r *PostgresTicketRepository) Patch(ctx context.Context, id string, patch *domain.TicketPatch, allowedFrom []domain.TicketStatus) (*domain.Ticket, error) {
	if len(allowedFrom) == 0 {
		allowedFrom = domain.AllTicketStatuses
	}
	allowed := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		allowed[i] = string(s)
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE tickets
		SET status = COALESCE($2::text, status),
			name = COALESCE($3::text, name)
		WHERE id = $1 AND status = ANY($4::text[])
		RETURNING ` + ticketColumns
	return scanTicket(database.Conn(ctx, r.pool).QueryRow(ctx, query, id, status, patch.Name, allowed))
}

// Delete removes a ticket
func (r *PostgresTicketRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		if database.IsInvalidText(err) {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByEvent removes every ticket of an event
func (r *PostgresTicketRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE event_id = $1`, eventID)
	if err != nil {
		if database.IsInvalidText(err) {
			return 0, nil
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every ticket
func (r *PostgresTicketRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM tickets`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
