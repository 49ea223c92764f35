package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/tgdesk/support-bot/pkg/apperrors"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSE"
)

const maxTitleLength = 200

// Ticket is the aggregate root for support requests. Ticket values are
// immutable: every transition returns a fresh instance and never touches the
// receiver, so concurrent readers cannot observe partial updates. A zero ID
// means the ticket has not been persisted yet.
type Ticket struct {
	ID         int64
	AuthorID   int64
	AssigneeID *int64
	Title      string
	Messages   []TicketMessage
	Status     TicketStatus
}

// NewTicket constructs a fresh, unassigned OPEN ticket.
func NewTicket(authorID int64, title string) (Ticket, error) {
	t := Ticket{
		AuthorID: authorID,
		Title:    title,
		Status:   TicketStatusOpen,
	}
	if err := t.validate(); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

func (t Ticket) validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return apperrors.NewValidation("ticket title cannot be empty", map[string]any{"field": "title"})
	}
	if n := utf8.RuneCountInString(t.Title); n > maxTitleLength {
		return apperrors.NewValidation("ticket title cannot exceed 200 characters", map[string]any{"field": "title", "length": n})
	}
	if t.AuthorID <= 0 {
		return apperrors.NewValidation("invalid author id", map[string]any{"field": "author_id", "value": t.AuthorID})
	}
	if t.ID < 0 {
		return apperrors.NewValidation("invalid ticket id", map[string]any{"field": "id", "value": t.ID})
	}
	if t.AssigneeID != nil && *t.AssigneeID <= 0 {
		return apperrors.NewValidation("invalid assignee id", map[string]any{"field": "assignee_id", "value": *t.AssigneeID})
	}
	if t.Status == TicketStatusInProgress && t.AssigneeID == nil {
		return apperrors.NewBusinessRuleViolation("ticket cannot be in progress without an assignee", "assignee_required")
	}
	return nil
}

// WithTitle returns a copy of the ticket carrying a new title.
func (t Ticket) WithTitle(title string) (Ticket, error) {
	next := t.clone()
	next.Title = title
	if err := next.validate(); err != nil {
		return Ticket{}, err
	}
	return next, nil
}

// Assign hands the ticket to an assignee. An OPEN ticket is promoted to
// IN_PROGRESS; an already IN_PROGRESS ticket keeps its status.
func (t Ticket) Assign(assigneeID int64) (Ticket, error) {
	if assigneeID <= 0 {
		return Ticket{}, apperrors.NewValidation("invalid assignee id", map[string]any{"field": "assignee_id", "value": assigneeID})
	}
	if t.Status == TicketStatusClosed {
		return Ticket{}, apperrors.NewBusinessRuleViolation("cannot assign a closed ticket", "assign_closed")
	}

	next := t.clone()
	next.AssigneeID = &assigneeID
	if t.Status == TicketStatusOpen {
		next.Status = TicketStatusInProgress
	}
	return next, nil
}

// ChangeStatus moves the ticket to newStatus, enforcing transition rules:
// a closed ticket can only go back to OPEN, and IN_PROGRESS requires an
// assignee.
func (t Ticket) ChangeStatus(newStatus TicketStatus) (Ticket, error) {
	switch newStatus {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
	default:
		return Ticket{}, apperrors.NewValidation("unknown ticket status", map[string]any{"field": "status", "value": string(newStatus)})
	}
	if t.Status == TicketStatusClosed && newStatus != TicketStatusOpen {
		return Ticket{}, apperrors.NewInvalidStateTransition(string(t.Status), string(newStatus))
	}
	if newStatus == TicketStatusInProgress && t.AssigneeID == nil {
		return Ticket{}, apperrors.NewBusinessRuleViolation("cannot set IN_PROGRESS status without assignee", "assignee_required")
	}

	next := t.clone()
	next.Status = newStatus
	return next, nil
}

// Close marks the ticket CLOSE.
func (t Ticket) Close() (Ticket, error) {
	if t.Status == TicketStatusClosed {
		return Ticket{}, apperrors.NewBusinessRuleViolation("ticket is already closed", "double_close")
	}
	next := t.clone()
	next.Status = TicketStatusClosed
	return next, nil
}

// Reopen returns a closed ticket to OPEN.
func (t Ticket) Reopen() (Ticket, error) {
	if t.Status != TicketStatusClosed {
		return Ticket{}, apperrors.NewBusinessRuleViolation("only closed tickets can be reopened", "reopen_not_closed")
	}
	next := t.clone()
	next.Status = TicketStatusOpen
	return next, nil
}

// AddMessage appends a message, preserving insertion order. Messages are
// owned by the ticket and must carry its id.
func (t Ticket) AddMessage(msg TicketMessage) (Ticket, error) {
	if t.Status == TicketStatusClosed {
		return Ticket{}, apperrors.NewBusinessRuleViolation("cannot add message to closed ticket", "message_on_closed")
	}
	if msg.TicketID != t.ID {
		return Ticket{}, apperrors.NewValidation("message does not belong to this ticket", map[string]any{"field": "ticket_id", "value": msg.TicketID})
	}

	next := t.clone()
	next.Messages = append(next.Messages, msg)
	return next, nil
}

// CanBeClosedBy reports whether userID is the author or the assignee.
func (t Ticket) CanBeClosedBy(userID int64) bool {
	return t.IsAuthor(userID) || t.IsAssignedTo(userID)
}

// IsAssignedTo reports whether the ticket is assigned to userID.
func (t Ticket) IsAssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// IsAuthor reports whether userID created the ticket.
func (t Ticket) IsAuthor(userID int64) bool {
	return t.AuthorID == userID
}

// IsAssigned reports whether anyone is working the ticket.
func (t Ticket) IsAssigned() bool {
	return t.AssigneeID != nil
}

func (t Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

func (t Ticket) IsInProgress() bool {
	return t.Status == TicketStatusInProgress
}

func (t Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// MessageCount returns the number of messages in the thread.
func (t Ticket) MessageCount() int {
	return len(t.Messages)
}

// LastMessage returns the most recent message, if any.
func (t Ticket) LastMessage() (TicketMessage, bool) {
	if len(t.Messages) == 0 {
		return TicketMessage{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// clone produces a deep copy so transitions never alias the receiver's
// assignee pointer or message slice.
func (t Ticket) clone() Ticket {
	next := t
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		next.AssigneeID = &id
	}
	next.Messages = make([]TicketMessage, len(t.Messages), len(t.Messages)+1)
	copy(next.Messages, t.Messages)
	return next
}
