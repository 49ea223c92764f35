package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tgdesk/support-bot/pkg/apperrors"
)

// MaxMessageLength bounds the content of a single ticket message.
const MaxMessageLength = 2000

// TicketMessage is one entry in a ticket thread. Messages are immutable once
// constructed and cannot outlive or move to another ticket. A zero ID means
// the message has not been persisted yet.
type TicketMessage struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}

// NewTicketMessage constructs a message for the given ticket.
func NewTicketMessage(ticketID, authorID int64, content string, createdAt time.Time) (TicketMessage, error) {
	if err := ValidateMessageContent(content); err != nil {
		return TicketMessage{}, err
	}
	if ticketID < 0 {
		return TicketMessage{}, apperrors.NewValidation("invalid ticket id", map[string]any{"field": "ticket_id", "value": ticketID})
	}
	if authorID <= 0 {
		return TicketMessage{}, apperrors.NewValidation("invalid author id", map[string]any{"field": "author_id", "value": authorID})
	}
	return TicketMessage{
		TicketID:  ticketID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// ValidateMessageContent checks the 1–2000 character content bound.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.NewValidation("message content cannot be empty", map[string]any{"field": "content"})
	}
	if n := utf8.RuneCountInString(content); n > MaxMessageLength {
		return apperrors.NewValidation("message content cannot exceed 2000 characters", map[string]any{"field": "content", "length": n})
	}
	return nil
}
