package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tgdesk/support-bot/internal/domain"
)

// In-memory repository fakes honoring the persistence contract: Save upserts
// keyed by id and hands back generated ids, ticket reads carry the ordered
// message thread.

type memUserRepo struct {
	seq  int64
	byID map[int64]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]domain.User)}
}

func (r *memUserRepo) Save(_ context.Context, user domain.User) (domain.User, error) {
	if user.ID == 0 {
		r.seq++
		user.ID = r.seq
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now()
		}
	} else if _, ok := r.byID[user.ID]; !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	r.byID[user.ID] = user
	return user, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) FindByTelegramID(_ context.Context, telegramID string) (domain.User, error) {
	for _, user := range r.byID {
		if user.TelegramID == telegramID {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) FindByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for id := int64(1); id <= r.seq; id++ {
		if user, ok := r.byID[id]; ok && user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

type memMessageRepo struct {
	seq      int64
	byID     map[int64]domain.TicketMessage
	byTicket map[int64][]int64
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{
		byID:     make(map[int64]domain.TicketMessage),
		byTicket: make(map[int64][]int64),
	}
}

func (r *memMessageRepo) Save(_ context.Context, msg domain.TicketMessage) (domain.TicketMessage, error) {
	if msg.ID == 0 {
		r.seq++
		msg.ID = r.seq
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now()
		}
		r.byTicket[msg.TicketID] = append(r.byTicket[msg.TicketID], msg.ID)
	} else if _, ok := r.byID[msg.ID]; !ok {
		return domain.TicketMessage{}, pgx.ErrNoRows
	}
	r.byID[msg.ID] = msg
	return msg, nil
}

func (r *memMessageRepo) FindByID(_ context.Context, id int64) (domain.TicketMessage, error) {
	msg, ok := r.byID[id]
	if !ok {
		return domain.TicketMessage{}, pgx.ErrNoRows
	}
	return msg, nil
}

func (r *memMessageRepo) FindByTicketID(_ context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	var result []domain.TicketMessage
	for _, id := range r.byTicket[ticketID] {
		result = append(result, r.byID[id])
	}
	return result, nil
}

type memTicketRepo struct {
	seq      int64
	byID     map[int64]domain.Ticket
	updated  map[int64]time.Time
	messages *memMessageRepo
}

func newMemTicketRepo(messages *memMessageRepo) *memTicketRepo {
	return &memTicketRepo{
		byID:     make(map[int64]domain.Ticket),
		updated:  make(map[int64]time.Time),
		messages: messages,
	}
}

func (r *memTicketRepo) Save(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	if ticket.ID == 0 {
		r.seq++
		ticket.ID = r.seq
	} else if _, ok := r.byID[ticket.ID]; !ok {
		return domain.Ticket{}, pgx.ErrNoRows
	}
	stored := ticket
	stored.Messages = nil
	r.byID[ticket.ID] = stored
	r.updated[ticket.ID] = time.Now()
	return ticket, nil
}

func (r *memTicketRepo) FindByID(ctx context.Context, id int64) (domain.Ticket, error) {
	ticket, ok := r.byID[id]
	if !ok {
		return domain.Ticket{}, pgx.ErrNoRows
	}
	msgs, err := r.messages.FindByTicketID(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket.Messages = msgs
	return ticket, nil
}

func (r *memTicketRepo) FindByAuthorID(ctx context.Context, authorID int64) ([]domain.Ticket, error) {
	return r.filter(ctx, func(t domain.Ticket) bool { return t.AuthorID == authorID })
}

func (r *memTicketRepo) FindByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.filter(ctx, func(t domain.Ticket) bool { return t.Status == status })
}

func (r *memTicketRepo) FindInProgressUpdatedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	return r.filter(ctx, func(t domain.Ticket) bool {
		return t.Status == domain.TicketStatusInProgress && r.updated[t.ID].Before(cutoff)
	})
}

func (r *memTicketRepo) filter(ctx context.Context, keep func(domain.Ticket) bool) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for id := int64(1); id <= r.seq; id++ {
		ticket, ok := r.byID[id]
		if !ok || !keep(ticket) {
			continue
		}
		full, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, full)
	}
	return result, nil
}
