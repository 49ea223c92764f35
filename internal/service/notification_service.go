package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/events"
	"github.com/tgdesk/support-bot/internal/repository"
)

// Notifier delivers a plain-text line to a user. The bot layer implements it
// over the Telegram transport.
type Notifier interface {
	NotifyUser(ctx context.Context, user domain.User, text string) error
}

// NotificationService turns domain events into notifications for admins and
// ticket participants.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	tickets    repository.TicketRepository
	notifier   Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, tickets repository.TicketRepository, notifier Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		tickets:    tickets,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events this service reacts to.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket created", zap.Int64("ticket_id", event.TicketID), zap.Int64("actor_id", event.ActorID))

	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	text := fmt.Sprintf("New ticket #%d: %s", event.TicketID, payload.Title)
	return n.notifyAdmins(ctx, event.ActorID, text)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket assigned", zap.Int64("ticket_id", event.TicketID), zap.Int64("actor_id", event.ActorID))

	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	assignee, err := n.users.FindByID(ctx, payload.AssigneeID)
	if err != nil {
		return err
	}
	if assignee.ID == event.ActorID {
		return nil
	}
	text := fmt.Sprintf("Ticket #%d has been assigned to you", event.TicketID)
	return n.notifier.NotifyUser(ctx, assignee, text)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket status changed", zap.Int64("ticket_id", event.TicketID), zap.Int64("actor_id", event.ActorID))

	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.FindByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	if ticket.AuthorID == event.ActorID {
		return nil
	}
	author, err := n.users.FindByID(ctx, ticket.AuthorID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Ticket #%d status changed: %s → %s", event.TicketID, payload.OldStatus, payload.NewStatus)
	return n.notifier.NotifyUser(ctx, author, text)
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket message added", zap.Int64("ticket_id", event.TicketID), zap.Int64("actor_id", event.ActorID))

	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.FindByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Ticket #%d has a new message: %s", event.TicketID, payload.BodyPreview)
	// Notify the counterpart: the author when staff replied, the assignee
	// when the author replied.
	if ticket.AuthorID != payload.AuthorID {
		author, err := n.users.FindByID(ctx, ticket.AuthorID)
		if err != nil {
			return err
		}
		return n.notifier.NotifyUser(ctx, author, text)
	}
	if ticket.IsAssigned() && !ticket.IsAssignedTo(payload.AuthorID) {
		assignee, err := n.users.FindByID(ctx, *ticket.AssigneeID)
		if err != nil {
			return err
		}
		return n.notifier.NotifyUser(ctx, assignee, text)
	}
	return nil
}

func (n *NotificationService) notifyAdmins(ctx context.Context, actorID int64, text string) error {
	admins, err := n.users.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		if admin.ID == actorID {
			continue
		}
		if err := n.notifier.NotifyUser(ctx, admin, text); err != nil {
			n.logger.Warn("failed to notify admin", zap.Int64("admin_id", admin.ID), zap.Error(err))
		}
	}
	return nil
}
