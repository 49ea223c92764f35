package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/events"
	"github.com/tgdesk/support-bot/internal/repository"
	"github.com/tgdesk/support-bot/pkg/apperrors"
)

// TicketService coordinates ticket workflows. Every use case loads the
// aggregates it needs, asks the requesting user's permission predicates, and
// persists the new aggregate value returned by the domain method.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a new ticket for the author. An empty initialMessage
// means the ticket starts without a thread. The ticket row and its first
// message are separate saves; a crash between them leaves a ticket without
// its initial message.
func (s *TicketService) CreateTicket(ctx context.Context, authorID int64, title, initialMessage string) (domain.Ticket, error) {
	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !author.CanCreateTickets() {
		return domain.Ticket{}, apperrors.NewForbidden("you cannot create tickets")
	}

	ticket, err := domain.NewTicket(author.ID, title)
	if err != nil {
		return domain.Ticket{}, err
	}

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}

	if initialMessage != "" {
		msg, err := domain.NewTicketMessage(saved.ID, author.ID, initialMessage, time.Now())
		if err != nil {
			return domain.Ticket{}, err
		}
		savedMsg, err := s.messages.Save(ctx, msg)
		if err != nil {
			return domain.Ticket{}, apperrors.MapError(err)
		}
		saved, err = saved.AddMessage(savedMsg)
		if err != nil {
			return domain.Ticket{}, err
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: saved.ID,
		ActorID:  author.ID,
		Payload: events.TicketCreatedPayload{
			AuthorID: author.ID,
			Title:    saved.Title,
		},
	})
	return saved, nil
}

// GetTicketByID fetches a ticket with its message thread.
func (s *TicketService) GetTicketByID(ctx context.Context, ticketID int64) (domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetTicketsByAuthor returns all tickets created by the given user.
func (s *TicketService) GetTicketsByAuthor(ctx context.Context, authorID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.FindByAuthorID(ctx, authorID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicketsByStatus returns all tickets in the given status.
func (s *TicketService) GetTicketsByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	tickets, err := s.tickets.FindByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AssignTicket hands a ticket to an assignee. Admin only.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID, assigneeID, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanAssignTickets() {
		return domain.Ticket{}, apperrors.NewForbidden("only administrators can assign tickets")
	}
	assignee, err := s.getUser(ctx, assigneeID)
	if err != nil {
		return domain.Ticket{}, err
	}

	assigned, err := ticket.Assign(assignee.ID)
	if err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.tickets.Save(ctx, assigned)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: saved.ID,
		ActorID:  requester.ID,
		Payload:  events.TicketAssignedPayload{AssigneeID: assignee.ID},
	})
	return saved, nil
}

// ChangeTicketStatus moves a ticket through its state machine on behalf of
// the requester.
func (s *TicketService) ChangeTicketStatus(ctx context.Context, ticketID int64, newStatus domain.TicketStatus, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanManageTicket(ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("you do not have permission to change this ticket status")
	}

	oldStatus := ticket.Status
	updated, err := ticket.ChangeStatus(newStatus)
	if err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.tickets.Save(ctx, updated)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: saved.ID,
		ActorID:  requester.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: saved.Status,
		},
	})
	return saved, nil
}

// CloseTicket closes a ticket. Author, assignee, and admins may close.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanCloseTicket(ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("you do not have permission to close this ticket")
	}

	oldStatus := ticket.Status
	closed, err := ticket.Close()
	if err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.tickets.Save(ctx, closed)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: saved.ID,
		ActorID:  requester.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: saved.Status,
		},
	})
	return saved, nil
}

// ReopenTicket returns a closed ticket to OPEN. Admin only.
func (s *TicketService) ReopenTicket(ctx context.Context, ticketID, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanReopenTickets() {
		return domain.Ticket{}, apperrors.NewForbidden("only administrators can reopen tickets")
	}

	reopened, err := ticket.Reopen()
	if err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.tickets.Save(ctx, reopened)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: saved.ID,
		ActorID:  requester.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusClosed,
			NewStatus: saved.Status,
		},
	})
	return saved, nil
}

// AddMessageToTicket appends a message to the thread and returns the updated
// aggregate.
func (s *TicketService) AddMessageToTicket(ctx context.Context, ticketID, authorID int64, content string) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !author.CanAddMessageToTicket(ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("you do not have permission to add messages to this ticket")
	}

	msg, err := domain.NewTicketMessage(ticket.ID, author.ID, content, time.Now())
	if err != nil {
		return domain.Ticket{}, err
	}
	// Run the aggregate's rules (closed ticket, ownership) before anything
	// is persisted.
	if _, err := ticket.AddMessage(msg); err != nil {
		return domain.Ticket{}, err
	}

	savedMsg, err := s.messages.Save(ctx, msg)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}
	updated, err := ticket.AddMessage(savedMsg)
	if err != nil {
		return domain.Ticket{}, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: updated.ID,
		ActorID:  author.ID,
		Payload: events.TicketMessageAddedPayload{
			MessageID:   savedMsg.ID,
			AuthorID:    author.ID,
			BodyPreview: preview(savedMsg.Content, 120),
		},
	})
	return updated, nil
}

// GetTicketMessages returns the thread for a ticket the requester may view.
func (s *TicketService) GetTicketMessages(ctx context.Context, ticketID, requesterID int64) ([]domain.TicketMessage, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.CanViewTicket(ticket) {
		return nil, apperrors.NewForbidden("you do not have permission to view this ticket")
	}

	msgs, err := s.messages.FindByTicketID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

// CanUserViewTicket reports whether the user may see the ticket.
func (s *TicketService) CanUserViewTicket(ctx context.Context, ticketID, userID int64) (bool, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.CanViewTicket(ticket), nil
}

// GetTicketMessageCount returns the number of messages in a ticket thread.
func (s *TicketService) GetTicketMessageCount(ctx context.Context, ticketID int64) (int, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return 0, err
	}
	return ticket.MessageCount(), nil
}

// IsTicketOpen reports whether the ticket is OPEN.
func (s *TicketService) IsTicketOpen(ctx context.Context, ticketID int64) (bool, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	return ticket.IsOpen(), nil
}

// IsTicketInProgress reports whether the ticket is IN_PROGRESS.
func (s *TicketService) IsTicketInProgress(ctx context.Context, ticketID int64) (bool, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	return ticket.IsInProgress(), nil
}

// IsTicketClosed reports whether the ticket is CLOSE.
func (s *TicketService) IsTicketClosed(ctx context.Context, ticketID int64) (bool, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	return ticket.IsClosed(), nil
}

// UpdateTicketTitle renames a ticket on behalf of the requester.
func (s *TicketService) UpdateTicketTitle(ctx context.Context, ticketID int64, newTitle string, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanManageTicket(ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("you do not have permission to edit this ticket")
	}

	renamed, err := ticket.WithTitle(newTitle)
	if err != nil {
		return domain.Ticket{}, err
	}
	saved, err := s.tickets.Save(ctx, renamed)
	if err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}
	return saved, nil
}

// UpdateTicketDescription rewrites the content of the ticket's first message,
// which serves as its description. Fails when the ticket has no messages.
func (s *TicketService) UpdateTicketDescription(ctx context.Context, ticketID int64, newContent string, requesterID int64) (domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	requester, err := s.getUser(ctx, requesterID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !requester.CanManageTicket(ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("you do not have permission to edit this ticket")
	}
	if ticket.MessageCount() == 0 {
		return domain.Ticket{}, apperrors.NewBusinessRuleViolation("ticket has no description to update", "description_missing")
	}
	if err := domain.ValidateMessageContent(newContent); err != nil {
		return domain.Ticket{}, err
	}

	first := ticket.Messages[0]
	first.Content = newContent
	if _, err := s.messages.Save(ctx, first); err != nil {
		return domain.Ticket{}, apperrors.MapError(err)
	}
	return s.getTicket(ctx, ticketID)
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return domain.Ticket{}, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) getUser(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return domain.User{}, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
