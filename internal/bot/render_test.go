package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/pkg/apperrors"
)

func sampleTicket(t *testing.T) domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(1, "Printer is broken")
	require.NoError(t, err)
	ticket.ID = 7
	return ticket
}

func TestFormatTicketLine(t *testing.T) {
	ticket := sampleTicket(t)
	assert.Equal(t, "🟢 #7 Printer is broken (0 messages)", formatTicketLine(ticket))

	assigneeID := int64(2)
	ticket.AssigneeID = &assigneeID
	ticket.Status = domain.TicketStatusInProgress
	assert.Contains(t, formatTicketLine(ticket), "🛠 #7")
}

func manyTickets(t *testing.T, n int) []domain.Ticket {
	t.Helper()
	tickets := make([]domain.Ticket, 0, n)
	for i := 0; i < n; i++ {
		ticket, err := domain.NewTicket(1, fmt.Sprintf("Ticket %d", i+1))
		require.NoError(t, err)
		ticket.ID = int64(i + 1)
		tickets = append(tickets, ticket)
	}
	return tickets
}

func TestPaginate(t *testing.T) {
	tickets := manyTickets(t, 12)

	visible, page, totalPages := paginate(tickets, 0)
	assert.Len(t, visible, 5)
	assert.Equal(t, 0, page)
	assert.Equal(t, 3, totalPages)
	assert.Equal(t, int64(1), visible[0].ID)

	visible, page, _ = paginate(tickets, 2)
	assert.Len(t, visible, 2)
	assert.Equal(t, 2, page)
	assert.Equal(t, int64(11), visible[0].ID)

	// Out-of-range pages clamp instead of failing.
	_, page, _ = paginate(tickets, 99)
	assert.Equal(t, 2, page)
	_, page, _ = paginate(tickets, -1)
	assert.Equal(t, 0, page)

	visible, page, totalPages = paginate(nil, 0)
	assert.Empty(t, visible)
	assert.Equal(t, 0, page)
	assert.Equal(t, 1, totalPages)
}

func TestFormatTicketPage(t *testing.T) {
	assert.Equal(t, "Your tickets:\n\nNothing here yet.", formatTicketPage("Your tickets:", nil, 0, 1))

	out := formatTicketPage("Your tickets:", []domain.Ticket{sampleTicket(t)}, 0, 1)
	assert.Contains(t, out, "Your tickets:")
	assert.Contains(t, out, "#7 Printer is broken")
	assert.NotContains(t, out, "Page")

	out = formatTicketPage("Your tickets:", []domain.Ticket{sampleTicket(t)}, 1, 3)
	assert.Contains(t, out, "Page 2 of 3")
}

func TestPageKeyboard(t *testing.T) {
	kb := pageKeyboard(cbMyPagePrefix, 0, 3)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "mypage:1", *kb.InlineKeyboard[0][0].CallbackData)

	kb = pageKeyboard(cbAllPagePrefix, 1, 3)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "allpage:0", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "allpage:2", *kb.InlineKeyboard[0][1].CallbackData)

	kb = pageKeyboard(cbMyPagePrefix, 2, 3)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "mypage:1", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestFormatTicketDetail(t *testing.T) {
	ticket := sampleTicket(t)

	out := formatTicketDetail(ticket, "Alice", "")
	assert.Contains(t, out, "Ticket #7: Printer is broken")
	assert.Contains(t, out, "Status: Open")
	assert.Contains(t, out, "Author: Alice")
	assert.Contains(t, out, "Assignee: —")
	assert.Contains(t, out, "No messages yet.")

	msg, err := domain.NewTicketMessage(7, 1, "It jams on every page.", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	withThread, err := ticket.AddMessage(msg)
	require.NoError(t, err)

	out = formatTicketDetail(withThread, "Alice", "")
	assert.Contains(t, out, "Messages (1):")
	assert.Contains(t, out, "[14 Mar 09:30] It jams on every page.")
}

func TestStatusAndRoleLabels(t *testing.T) {
	assert.Equal(t, "Open", statusLabel(domain.TicketStatusOpen))
	assert.Equal(t, "In progress", statusLabel(domain.TicketStatusInProgress))
	assert.Equal(t, "Closed", statusLabel(domain.TicketStatusClosed))
	assert.Equal(t, "Administrator", roleLabel(domain.RoleAdmin))
	assert.Equal(t, "Client", roleLabel(domain.RoleClient))
}

func TestUserErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", apperrors.NewNotFound("ticket", nil), "Not found. Check the id and try again."},
		{"validation", apperrors.NewValidation("title too long", nil), "That input is not valid: title too long"},
		{"forbidden", apperrors.NewForbidden("only administrators can assign tickets"), "You are not allowed to do that."},
		{"conflict", apperrors.NewConflict("exists", nil), "This already exists."},
		{"business rule", apperrors.NewBusinessRuleViolation("ticket is already closed", "double_close"), "That is not possible: ticket is already closed"},
		{"state transition", apperrors.NewInvalidStateTransition("CLOSE", "IN_PROGRESS"), "The ticket cannot change to that status right now."},
		{"unauthorized", apperrors.NewUnauthorized("unknown user"), "Please run /start first."},
		{"plain error", errors.New("pool exhausted"), "Something went wrong. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userErrorText(tt.err))
		})
	}
}

func commandMessage(text string) *tgbotapi.Message {
	length := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		length = i
	}
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestSessionRouting(t *testing.T) {
	assert.True(t, routesToSession(&tgbotapi.Message{Text: "plain text"}), "free text feeds the active flow")
	assert.True(t, routesToSession(commandMessage("/skip")), "/skip answers the new-ticket flow")
	assert.False(t, routesToSession(commandMessage("/help")))
	assert.False(t, routesToSession(commandMessage("/newticket")))
}

func TestParseIDHelpers(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("abc")
	assert.Equal(t, apperrors.CodeValidation, errorCode(err))

	_, err = parseID("-1")
	assert.Equal(t, apperrors.CodeValidation, errorCode(err))

	id, rest, err := parseIDAndText("7 the printer works again", "usage: /reply <id> <text>")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "the printer works again", rest)

	_, _, err = parseIDAndText("7", "usage: /reply <id> <text>")
	assert.EqualError(t, err, "usage: /reply <id> <text>")
}
