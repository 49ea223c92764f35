package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgdesk/support-bot/internal/domain"
)

// TicketMessageRepository stores individual thread messages. Save is an
// upsert keyed by id; re-saving a message with an assigned id rewrites its
// content, which is how message edits are modeled.
type TicketMessageRepository interface {
	Save(ctx context.Context, msg domain.TicketMessage) (domain.TicketMessage, error)
	FindByID(ctx context.Context, id int64) (domain.TicketMessage, error)
	FindByTicketID(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository instantiates the repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Save(ctx context.Context, msg domain.TicketMessage) (domain.TicketMessage, error) {
	if msg.ID == 0 {
		const query = `
            INSERT INTO ticket_messages (ticket_id, author_id, content)
            VALUES ($1, $2, $3)
            RETURNING id, created_at`
		if err := r.pool.QueryRow(ctx, query,
			msg.TicketID,
			msg.AuthorID,
			msg.Content,
		).Scan(&msg.ID, &msg.CreatedAt); err != nil {
			return domain.TicketMessage{}, err
		}
		return msg, nil
	}

	const query = `
        UPDATE ticket_messages SET content=$1
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, msg.Content, msg.ID)
	if err != nil {
		return domain.TicketMessage{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.TicketMessage{}, pgx.ErrNoRows
	}
	return msg, nil
}

func (r *ticketMessageRepository) FindByID(ctx context.Context, id int64) (domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, created_at
        FROM ticket_messages WHERE id=$1`
	var msg domain.TicketMessage
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.AuthorID,
		&msg.Content,
		&msg.CreatedAt,
	); err != nil {
		return domain.TicketMessage{}, err
	}
	return msg, nil
}

func (r *ticketMessageRepository) FindByTicketID(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, created_at
        FROM ticket_messages WHERE ticket_id=$1
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
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
		result = append(result, msg)
	}
	return result, rows.Err()
}
