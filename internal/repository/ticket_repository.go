package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgdesk/support-bot/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Save upserts the ticket
// row keyed by id; the returned value carries the generated id for inserts.
// All reads return tickets with their full message thread, ordered by
// creation time ascending.
type TicketRepository interface {
	Save(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	FindByID(ctx context.Context, id int64) (domain.Ticket, error)
	FindByAuthorID(ctx context.Context, authorID int64) ([]domain.Ticket, error)
	FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	FindInProgressUpdatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Save(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	if ticket.ID == 0 {
		const query = `
            INSERT INTO tickets (author_id, assignee_id, title, status)
            VALUES ($1, $2, $3, $4)
            RETURNING id`
		if err := r.pool.QueryRow(ctx, query,
			ticket.AuthorID,
			ticket.AssigneeID,
			ticket.Title,
			ticket.Status,
		).Scan(&ticket.ID); err != nil {
			return domain.Ticket{}, err
		}
		return ticket, nil
	}

	const query = `
        UPDATE tickets SET assignee_id=$1, title=$2, status=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Status,
		ticket.ID,
	)
	if err != nil {
		return domain.Ticket{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.Ticket{}, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id int64) (domain.Ticket, error) {
	const query = `
        SELECT id, author_id, assignee_id, title, status
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.AuthorID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Status,
	); err != nil {
		return domain.Ticket{}, err
	}

	messages, err := r.loadMessages(ctx, []int64{ticket.ID})
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket.Messages = messages[ticket.ID]
	return ticket, nil
}

func (r *ticketRepository) FindByAuthorID(ctx context.Context, authorID int64) ([]domain.Ticket, error) {
	const query = `
        SELECT id, author_id, assignee_id, title, status
        FROM tickets WHERE author_id=$1 ORDER BY id`
	return r.fetchList(ctx, query, authorID)
}

func (r *ticketRepository) FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	const query = `
        SELECT id, author_id, assignee_id, title, status
        FROM tickets WHERE status=$1 ORDER BY id`
	return r.fetchList(ctx, query, status)
}

func (r *ticketRepository) FindInProgressUpdatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT id, author_id, assignee_id, title, status
        FROM tickets WHERE status='IN_PROGRESS' AND updated_at < $1 ORDER BY id`
	return r.fetchList(ctx, query, cutoff)
}

func (r *ticketRepository) fetchList(ctx context.Context, query string, arg any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	var ids []int64
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.AuthorID,
			&ticket.AssigneeID,
			&ticket.Title,
			&ticket.Status,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
		ids = append(ids, ticket.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return tickets, nil
	}

	messages, err := r.loadMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].Messages = messages[tickets[i].ID]
	}
	return tickets, nil
}

func (r *ticketRepository) loadMessages(ctx context.Context, ticketIDs []int64) (map[int64][]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, created_at
        FROM ticket_messages WHERE ticket_id = ANY($1)
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]domain.TicketMessage, len(ticketIDs))
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[msg.TicketID] = append(result[msg.TicketID], msg)
	}
	return result, rows.Err()
}
