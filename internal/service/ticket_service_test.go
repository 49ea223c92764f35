package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/events"
	"github.com/tgdesk/support-bot/pkg/apperrors"
)

type serviceHarness struct {
	users    *memUserRepo
	tickets  *memTicketRepo
	messages *memMessageRepo
	events   *recordingDispatcher
	tickSvc  *TicketService
	userSvc  *UserService
}

type recordingDispatcher struct {
	inner     events.Dispatcher
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return d.inner.Publish(ctx, event)
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

func (d *recordingDispatcher) types() []events.EventType {
	var out []events.EventType
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

func newHarness(t *testing.T) *serviceHarness {
	t.Helper()
	users := newMemUserRepo()
	messages := newMemMessageRepo()
	tickets := newMemTicketRepo(messages)
	dispatcher := &recordingDispatcher{inner: events.NewInMemoryDispatcher()}
	return &serviceHarness{
		users:    users,
		tickets:  tickets,
		messages: messages,
		events:   dispatcher,
		tickSvc: NewTicketService(TicketDependencies{
			TicketRepo:  tickets,
			MessageRepo: messages,
			UserRepo:    users,
			Dispatcher:  dispatcher,
		}),
		userSvc: NewUserService(users),
	}
}

func (h *serviceHarness) seedUser(t *testing.T, telegramID, name string, role domain.Role) domain.User {
	t.Helper()
	user, err := h.userSvc.CreateUser(context.Background(), telegramID, name, role)
	require.NoError(t, err)
	return user
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("with initial message", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)

		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Printer is broken", "It jams on every page.")
		require.NoError(t, err)

		assert.NotZero(t, ticket.ID)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Nil(t, ticket.AssigneeID)
		require.Len(t, ticket.Messages, 1)
		assert.Equal(t, "It jams on every page.", ticket.Messages[0].Content)
		assert.Equal(t, alice.ID, ticket.Messages[0].AuthorID)
		assert.Equal(t, ticket.ID, ticket.Messages[0].TicketID)

		stored, err := h.tickSvc.GetTicketByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Messages, 1)

		assert.Equal(t, []events.EventType{events.EventTicketCreated}, h.events.types())
	})

	t.Run("without initial message", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)

		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Printer is broken", "")
		require.NoError(t, err)
		assert.Empty(t, ticket.Messages)
	})

	t.Run("invalid title", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)

		_, err := h.tickSvc.CreateTicket(ctx, alice.ID, "", "body")
		assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	})

	t.Run("unknown author", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.tickSvc.CreateTicket(ctx, 99, "Title", "")
		assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	})
}

func TestAssignTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("admin assigns and ticket moves to in progress", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		bob := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "help")
		require.NoError(t, err)

		assigned, err := h.tickSvc.AssignTicket(ctx, ticket.ID, bob.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
		require.NotNil(t, assigned.AssigneeID)
		assert.Equal(t, bob.ID, *assigned.AssigneeID)

		assert.Contains(t, h.events.types(), events.EventTicketAssigned)
	})

	t.Run("non-admin cannot assign", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		bob := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)

		_, err = h.tickSvc.AssignTicket(ctx, ticket.ID, bob.ID, alice.ID)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

		unchanged, err := h.tickSvc.GetTicketByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)
		assert.Nil(t, unchanged.AssigneeID)
	})

	t.Run("assigning a closed ticket fails", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		bob := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)
		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, bob.ID)
		require.NoError(t, err)

		_, err = h.tickSvc.AssignTicket(ctx, ticket.ID, bob.ID, bob.ID)
		assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err))
	})
}

func TestCloseAndReopenTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("assignee closes", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "help")
		require.NoError(t, err)
		_, err = h.tickSvc.AssignTicket(ctx, ticket.ID, admin.ID, admin.ID)
		require.NoError(t, err)

		closed, err := h.tickSvc.CloseTicket(ctx, ticket.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusClosed, closed.Status)
		assert.Contains(t, h.events.types(), events.EventTicketStatusChanged)
	})

	t.Run("stranger cannot close", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)

		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, carol.ID)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	})

	t.Run("closing twice fails", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)
		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, admin.ID)
		require.NoError(t, err)

		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, admin.ID)
		assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err))
	})

	t.Run("author cannot reopen, admin can", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)
		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, admin.ID)
		require.NoError(t, err)

		_, err = h.tickSvc.ReopenTicket(ctx, ticket.ID, alice.ID)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

		reopened, err := h.tickSvc.ReopenTicket(ctx, ticket.ID, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, reopened.Status)
		assert.Nil(t, reopened.AssigneeID)
		assert.Contains(t, h.events.types(), events.EventTicketReopened)
	})

	t.Run("reopening an open ticket fails", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)

		_, err = h.tickSvc.ReopenTicket(ctx, ticket.ID, admin.ID)
		assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err))
	})
}

func TestChangeTicketStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
	carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
	ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
	require.NoError(t, err)

	_, err = h.tickSvc.ChangeTicketStatus(ctx, ticket.ID, domain.TicketStatusInProgress, alice.ID)
	assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err),
		"open ticket without assignee cannot enter IN_PROGRESS")

	_, err = h.tickSvc.ChangeTicketStatus(ctx, ticket.ID, domain.TicketStatusClosed, carol.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	closed, err := h.tickSvc.ChangeTicketStatus(ctx, ticket.ID, domain.TicketStatusClosed, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
}

func TestAddMessageToTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("thread grows in order", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "first")
		require.NoError(t, err)

		_, err = h.tickSvc.AddMessageToTicket(ctx, ticket.ID, admin.ID, "second")
		require.NoError(t, err)
		updated, err := h.tickSvc.AddMessageToTicket(ctx, ticket.ID, alice.ID, "third")
		require.NoError(t, err)

		require.Len(t, updated.Messages, 3)
		assert.Equal(t, "first", updated.Messages[0].Content)
		assert.Equal(t, "second", updated.Messages[1].Content)
		assert.Equal(t, "third", updated.Messages[2].Content)
		assert.Contains(t, h.events.types(), events.EventTicketMessageAdded)
	})

	t.Run("stranger cannot post", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)

		_, err = h.tickSvc.AddMessageToTicket(ctx, ticket.ID, carol.ID, "hello")
		assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	})

	t.Run("closed ticket rejects messages", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)
		_, err = h.tickSvc.CloseTicket(ctx, ticket.ID, admin.ID)
		require.NoError(t, err)

		_, err = h.tickSvc.AddMessageToTicket(ctx, ticket.ID, alice.ID, "anyone there?")
		assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err))

		count, err := h.tickSvc.GetTicketMessageCount(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("blank content rejected", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "")
		require.NoError(t, err)

		_, err = h.tickSvc.AddMessageToTicket(ctx, ticket.ID, alice.ID, "   ")
		assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	})
}

func TestGetTicketMessages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
	carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
	admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
	ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Broken printer", "first")
	require.NoError(t, err)

	msgs, err := h.tickSvc.GetTicketMessages(ctx, ticket.ID, admin.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = h.tickSvc.GetTicketMessages(ctx, ticket.ID, carol.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	ok, err := h.tickSvc.CanUserViewTicket(ctx, ticket.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.tickSvc.CanUserViewTicket(ctx, ticket.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTicketQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
	carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
	admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)

	t1, err := h.tickSvc.CreateTicket(ctx, alice.ID, "First", "")
	require.NoError(t, err)
	t2, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Second", "")
	require.NoError(t, err)
	_, err = h.tickSvc.CreateTicket(ctx, carol.ID, "Third", "")
	require.NoError(t, err)

	_, err = h.tickSvc.AssignTicket(ctx, t2.ID, admin.ID, admin.ID)
	require.NoError(t, err)

	byAuthor, err := h.tickSvc.GetTicketsByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	open, err := h.tickSvc.GetTicketsByStatus(ctx, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	inProgress, err := h.tickSvc.GetTicketsByStatus(ctx, domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, t2.ID, inProgress[0].ID)

	isOpen, err := h.tickSvc.IsTicketOpen(ctx, t1.ID)
	require.NoError(t, err)
	assert.True(t, isOpen)

	isInProgress, err := h.tickSvc.IsTicketInProgress(ctx, t2.ID)
	require.NoError(t, err)
	assert.True(t, isInProgress)

	_, err = h.tickSvc.GetTicketByID(ctx, 999)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestUpdateTicketTitleAndDescription(t *testing.T) {
	ctx := context.Background()

	t.Run("author edits title", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Old title", "body")
		require.NoError(t, err)

		updated, err := h.tickSvc.UpdateTicketTitle(ctx, ticket.ID, "New title", alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
	})

	t.Run("stranger cannot edit title", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		carol := h.seedUser(t, "300", "Carol", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Old title", "")
		require.NoError(t, err)

		_, err = h.tickSvc.UpdateTicketTitle(ctx, ticket.ID, "New title", carol.ID)
		assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	})

	t.Run("description rewrite replaces first message", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Title", "original description")
		require.NoError(t, err)
		_, err = h.tickSvc.AddMessageToTicket(ctx, ticket.ID, alice.ID, "follow up")
		require.NoError(t, err)

		updated, err := h.tickSvc.UpdateTicketDescription(ctx, ticket.ID, "rewritten description", alice.ID)
		require.NoError(t, err)
		require.Len(t, updated.Messages, 2)
		assert.Equal(t, "rewritten description", updated.Messages[0].Content)
		assert.Equal(t, "follow up", updated.Messages[1].Content)
	})

	t.Run("description rewrite without a thread fails", func(t *testing.T) {
		h := newHarness(t)
		alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
		ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Title", "")
		require.NoError(t, err)

		_, err = h.tickSvc.UpdateTicketDescription(ctx, ticket.ID, "text", alice.ID)
		assert.Equal(t, apperrors.CodeBusinessRuleViolation, apperrors.CodeOf(err))
	})
}

func TestMessagePreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 120))

	long := strings.Repeat("я", 200)
	out := preview(long, 120)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("я", 117)+"...", out)

	assert.Equal(t, "яя", preview(strings.Repeat("я", 10), 2))
}

func TestFindInProgressUpdatedBefore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.seedUser(t, "100", "Alice", domain.RoleClient)
	admin := h.seedUser(t, "200", "Bob", domain.RoleAdmin)
	ticket, err := h.tickSvc.CreateTicket(ctx, alice.ID, "Stale one", "")
	require.NoError(t, err)
	_, err = h.tickSvc.AssignTicket(ctx, ticket.ID, admin.ID, admin.ID)
	require.NoError(t, err)

	stale, err := h.tickets.FindInProgressUpdatedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, ticket.ID, stale[0].ID)

	stale, err = h.tickets.FindInProgressUpdatedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)
}
