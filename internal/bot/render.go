package bot

import (
	"fmt"
	"strings"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/pkg/apperrors"
)

const (
	iconOpen       = "🟢"
	iconInProgress = "🛠"
	iconClosed     = "🔒"
)

func statusIcon(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusOpen:
		return iconOpen
	case domain.TicketStatusInProgress:
		return iconInProgress
	case domain.TicketStatusClosed:
		return iconClosed
	}
	return "❔"
}

func statusLabel(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusOpen:
		return "Open"
	case domain.TicketStatusInProgress:
		return "In progress"
	case domain.TicketStatusClosed:
		return "Closed"
	}
	return string(status)
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "Administrator"
	}
	return "Client"
}

func formatTicketLine(t domain.Ticket) string {
	return fmt.Sprintf("%s #%d %s (%d messages)", statusIcon(t.Status), t.ID, t.Title, t.MessageCount())
}

const ticketsPerPage = 5

// paginate clamps page into range and returns the visible slice, the
// effective page, and the total page count (at least 1). Pages are
// zero-based.
func paginate(tickets []domain.Ticket, page int) ([]domain.Ticket, int, int) {
	totalPages := (len(tickets) + ticketsPerPage - 1) / ticketsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * ticketsPerPage
	end := start + ticketsPerPage
	if start > len(tickets) {
		start = len(tickets)
	}
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[start:end], page, totalPages
}

func formatTicketPage(header string, tickets []domain.Ticket, page, totalPages int) string {
	if len(tickets) == 0 {
		return header + "\n\nNothing here yet."
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, t := range tickets {
		b.WriteString("\n")
		b.WriteString(formatTicketLine(t))
	}
	if totalPages > 1 {
		fmt.Fprintf(&b, "\n\nPage %d of %d", page+1, totalPages)
	}
	return b.String()
}

func formatTicketDetail(t domain.Ticket, authorName, assigneeName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Ticket #%d: %s\n", statusIcon(t.Status), t.ID, t.Title)
	fmt.Fprintf(&b, "Status: %s\n", statusLabel(t.Status))
	fmt.Fprintf(&b, "Author: %s\n", authorName)
	if t.IsAssigned() {
		fmt.Fprintf(&b, "Assignee: %s\n", assigneeName)
	} else {
		b.WriteString("Assignee: —\n")
	}

	if t.MessageCount() == 0 {
		b.WriteString("\nNo messages yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nMessages (%d):\n", t.MessageCount())
	for _, msg := range t.Messages {
		fmt.Fprintf(&b, "\n[%s] %s", msg.CreatedAt.Format("02 Jan 15:04"), msg.Content)
	}
	return b.String()
}

func invalidIDError(raw string) error {
	return apperrors.NewValidation("expected a positive numeric id", map[string]any{"value": strings.TrimSpace(raw)})
}

func errorCode(err error) string {
	return apperrors.CodeOf(err)
}

// userErrorText maps a machine-readable error code to the line shown in chat.
// This is the only place domain errors become user-facing text.
func userErrorText(err error) string {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.Code {
	case apperrors.CodeNotFound:
		return "Not found. Check the id and try again."
	case apperrors.CodeValidation:
		return "That input is not valid: " + domainErr.Message
	case apperrors.CodeForbidden:
		return "You are not allowed to do that."
	case apperrors.CodeConflict:
		return "This already exists."
	case apperrors.CodeBusinessRuleViolation:
		return "That is not possible: " + domainErr.Message
	case apperrors.CodeInvalidStateTransition:
		return "The ticket cannot change to that status right now."
	case apperrors.CodeUnauthorized:
		return "Please run /start first."
	default:
		return "Something went wrong. Please try again later."
	}
}
