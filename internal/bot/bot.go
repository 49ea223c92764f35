package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tgdesk/support-bot/internal/config"
	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/observability"
	"github.com/tgdesk/support-bot/internal/service"
)

const (
	cbViewPrefix     = "view:"
	cbReplyPrefix    = "reply:"
	cbClosePrefix    = "close:"
	cbAssignMePrefix = "assignme:"
	cbReopenPrefix   = "reopen:"
	cbMyPagePrefix   = "mypage:"
	cbAllPagePrefix  = "allpage:"
)

// Bot is the Telegram presentation layer. It translates chat input into
// service calls and renders the returned entities and errors; it holds no
// domain state of its own.
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *service.UserService
	tickets  *service.TicketService
	sessions *SessionStore
	limiter  *RateLimiter
	metrics  *observability.Metrics
	logger   *zap.Logger
	timeout  int
}

// New authorizes the bot against the Telegram API.
func New(cfg config.TelegramConfig, users *service.UserService, tickets *service.TicketService, sessions *SessionStore, limiter *RateLimiter, metrics *observability.Metrics, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Info("bot authorized", zap.String("username", api.Self.UserName))

	return &Bot{
		api:      api,
		users:    users,
		tickets:  tickets,
		sessions: sessions,
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
		timeout:  cfg.PollTimeoutSeconds,
	}, nil
}

// Self returns the authorized bot account name.
func (b *Bot) Self() string {
	return b.api.Self.UserName
}

// Start polls updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.metrics.RecordUpdate()
			b.handleUpdate(ctx, update)
		}
	}
}

// NotifyUser implements service.Notifier over the Telegram transport.
func (b *Bot) NotifyUser(_ context.Context, user domain.User, text string) error {
	chatID, err := strconv.ParseInt(user.TelegramID, 10, 64)
	if err != nil {
		return fmt.Errorf("user %d has non-numeric telegram id: %w", user.ID, err)
	}
	_, err = b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if !b.limiter.Allow(ctx, msg.From.ID) {
		b.reply(msg.Chat.ID, "Too many requests, take a short break.")
		return
	}

	user, err := b.users.GetOrCreateUser(ctx, strconv.FormatInt(msg.From.ID, 10), displayName(msg.From))
	if err != nil {
		b.logger.Error("registration failed", zap.Int64("from", msg.From.ID), zap.Error(err))
		b.reply(msg.Chat.ID, userErrorText(err))
		return
	}

	if routesToSession(msg) {
		b.handleSessionInput(ctx, msg, user)
		return
	}
	b.handleCommand(ctx, msg, user)
}

// routesToSession reports whether a message belongs to the active
// conversational flow rather than the command switch. /skip is an answer
// inside the new-ticket flow, not a standalone command.
func routesToSession(msg *tgbotapi.Message) bool {
	return !msg.IsCommand() || msg.Command() == "skip"
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user domain.User) {
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	b.metrics.RecordCommand(command)

	var err error
	switch command {
	case "start":
		b.reply(msg.Chat.ID, fmt.Sprintf("Hello, %s! You are registered as %s.\nUse /newticket to open a support request, /help for all commands.", user.Name, roleLabel(user.Role)))
	case "help":
		b.reply(msg.Chat.ID, b.helpText(user))
	case "newticket":
		err = b.startNewTicketFlow(ctx, msg.Chat.ID)
	case "cancel":
		err = b.cancelFlow(ctx, msg.Chat.ID)
	case "mytickets":
		err = b.showMyTickets(ctx, msg.Chat.ID, user, 0)
	case "ticket":
		err = b.showTicket(ctx, msg.Chat.ID, user, args)
	case "reply":
		err = b.startReplyFlow(ctx, msg.Chat.ID, user, args)
	case "close":
		err = b.closeTicket(ctx, msg.Chat.ID, user, args)
	case "assign":
		err = b.assignTicket(ctx, msg.Chat.ID, user, args)
	case "reopen":
		err = b.reopenTicket(ctx, msg.Chat.ID, user, args)
	case "alltickets":
		err = b.showAllTickets(ctx, msg.Chat.ID, user, 0)
	case "promote":
		err = b.changeRole(ctx, msg.Chat.ID, user, args, domain.RoleAdmin)
	case "demote":
		err = b.changeRole(ctx, msg.Chat.ID, user, args, domain.RoleClient)
	case "setname":
		err = b.setName(ctx, msg.Chat.ID, user, args)
	case "edittitle":
		err = b.editTitle(ctx, msg.Chat.ID, user, args)
	case "editdesc":
		err = b.editDescription(ctx, msg.Chat.ID, user, args)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help.")
	}

	if err != nil {
		b.metrics.RecordError(command, errorCode(err))
		b.logger.Warn("command failed",
			zap.String("command", command),
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		b.reply(msg.Chat.ID, userErrorText(err))
	}
}

func (b *Bot) helpText(user domain.User) string {
	var b2 strings.Builder
	b2.WriteString("Commands:\n")
	b2.WriteString("/newticket — open a support request\n")
	b2.WriteString("/mytickets — list your tickets\n")
	b2.WriteString("/ticket <id> — show a ticket\n")
	b2.WriteString("/reply <id> — answer in a ticket\n")
	b2.WriteString("/close <id> — close a ticket\n")
	b2.WriteString("/edittitle <id> <title> — rename a ticket\n")
	b2.WriteString("/editdesc <id> <text> — rewrite the description\n")
	b2.WriteString("/setname <name> — change your display name\n")
	b2.WriteString("/cancel — abort the current flow\n")
	if user.IsAdmin() {
		b2.WriteString("\nAdmin commands:\n")
		b2.WriteString("/alltickets — overview of all tickets\n")
		b2.WriteString("/assign <ticket> <user> — assign a ticket\n")
		b2.WriteString("/reopen <id> — reopen a closed ticket\n")
		b2.WriteString("/promote <user> — make a user admin\n")
		b2.WriteString("/demote <user> — make an admin a client\n")
	}
	return b2.String()
}

func (b *Bot) startNewTicketFlow(ctx context.Context, chatID int64) error {
	if err := b.sessions.Set(ctx, chatID, Session{Stage: StageTicketTitle}); err != nil {
		return err
	}
	b.reply(chatID, "What is the ticket about? Send a short title (or /cancel).")
	return nil
}

func (b *Bot) cancelFlow(ctx context.Context, chatID int64) error {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		return err
	}
	b.reply(chatID, "Cancelled.")
	return nil
}

func (b *Bot) handleSessionInput(ctx context.Context, msg *tgbotapi.Message, user domain.User) {
	session, err := b.sessions.Get(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("session lookup failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		return
	}

	switch session.Stage {
	case StageTicketTitle:
		title := strings.TrimSpace(msg.Text)
		if title == "/skip" {
			b.reply(msg.Chat.ID, "A ticket needs a title. Send one (or /cancel).")
			return
		}
		session.Title = title
		session.Stage = StageTicketMessage
		if err := b.sessions.Set(ctx, msg.Chat.ID, session); err != nil {
			b.reply(msg.Chat.ID, userErrorText(err))
			return
		}
		b.reply(msg.Chat.ID, "Now describe the problem in one message (or /skip).")
	case StageTicketMessage:
		initial := strings.TrimSpace(msg.Text)
		if initial == "/skip" {
			initial = ""
		}
		ticket, err := b.tickets.CreateTicket(ctx, user.ID, session.Title, initial)
		_ = b.sessions.Clear(ctx, msg.Chat.ID)
		if err != nil {
			b.metrics.RecordError("newticket", errorCode(err))
			b.reply(msg.Chat.ID, userErrorText(err))
			return
		}
		b.replyWithKeyboard(msg.Chat.ID,
			fmt.Sprintf("Ticket #%d created.\n%s", ticket.ID, formatTicketLine(ticket)),
			b.ticketKeyboard(ticket, user))
	case StageReply:
		ticket, err := b.tickets.AddMessageToTicket(ctx, session.TicketID, user.ID, msg.Text)
		_ = b.sessions.Clear(ctx, msg.Chat.ID)
		if err != nil {
			b.metrics.RecordError("reply", errorCode(err))
			b.reply(msg.Chat.ID, userErrorText(err))
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("Message added to ticket #%d.", ticket.ID))
	default:
		b.reply(msg.Chat.ID, "Use /newticket to open a ticket or /help for all commands.")
	}
}

func (b *Bot) showMyTickets(ctx context.Context, chatID int64, user domain.User, page int) error {
	tickets, err := b.tickets.GetTicketsByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}
	b.sendTicketPage(chatID, "Your tickets:", tickets, page, cbMyPagePrefix)
	return nil
}

// sendTicketPage renders one page of a ticket list with prev/next buttons
// when there is more than one page. Telegram caps messages at 4096
// characters, so long lists must never go out in a single message.
func (b *Bot) sendTicketPage(chatID int64, header string, tickets []domain.Ticket, page int, prefix string) {
	visible, page, totalPages := paginate(tickets, page)
	text := formatTicketPage(header, visible, page, totalPages)
	if totalPages <= 1 {
		b.reply(chatID, text)
		return
	}
	b.replyWithKeyboard(chatID, text, pageKeyboard(prefix, page, totalPages))
}

func pageKeyboard(prefix string, page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", prefix+strconv.Itoa(page-1)))
	}
	if page < totalPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡️ Next", prefix+strconv.Itoa(page+1)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func (b *Bot) showTicket(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, err := parseID(args)
	if err != nil {
		return err
	}
	return b.sendTicketDetail(ctx, chatID, user, ticketID)
}

func (b *Bot) sendTicketDetail(ctx context.Context, chatID int64, user domain.User, ticketID int64) error {
	canView, err := b.tickets.CanUserViewTicket(ctx, ticketID, user.ID)
	if err != nil {
		return err
	}
	if !canView {
		b.reply(chatID, "You are not allowed to view this ticket.")
		return nil
	}

	ticket, err := b.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}

	authorName := b.lookupName(ctx, ticket.AuthorID)
	assigneeName := ""
	if ticket.IsAssigned() {
		assigneeName = b.lookupName(ctx, *ticket.AssigneeID)
	}
	b.replyWithKeyboard(chatID, formatTicketDetail(ticket, authorName, assigneeName), b.ticketKeyboard(ticket, user))
	return nil
}

func (b *Bot) lookupName(ctx context.Context, userID int64) string {
	u, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Sprintf("user #%d", userID)
	}
	return u.Name
}

func (b *Bot) startReplyFlow(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, err := parseID(args)
	if err != nil {
		return err
	}
	// Surface permission and closed-ticket problems before asking for text.
	ticket, err := b.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !user.CanAddMessageToTicket(ticket) {
		b.reply(chatID, "You are not allowed to reply in this ticket.")
		return nil
	}
	if ticket.IsClosed() {
		b.reply(chatID, "This ticket is closed. An administrator can /reopen it.")
		return nil
	}

	if err := b.sessions.Set(ctx, chatID, Session{Stage: StageReply, TicketID: ticketID}); err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Send your message for ticket #%d (or /cancel).", ticketID))
	return nil
}

func (b *Bot) closeTicket(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, err := parseID(args)
	if err != nil {
		return err
	}
	ticket, err := b.tickets.CloseTicket(ctx, ticketID, user.ID)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Ticket #%d closed.", ticket.ID))
	return nil
}

func (b *Bot) assignTicket(ctx context.Context, chatID int64, user domain.User, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.reply(chatID, "Usage: /assign <ticket id> <user id>")
		return nil
	}
	ticketID, err := parseID(fields[0])
	if err != nil {
		return err
	}
	assigneeID, err := parseID(fields[1])
	if err != nil {
		return err
	}
	ticket, err := b.tickets.AssignTicket(ctx, ticketID, assigneeID, user.ID)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Ticket #%d assigned to %s.", ticket.ID, b.lookupName(ctx, assigneeID)))
	return nil
}

func (b *Bot) reopenTicket(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, err := parseID(args)
	if err != nil {
		return err
	}
	ticket, err := b.tickets.ReopenTicket(ctx, ticketID, user.ID)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Ticket #%d reopened.", ticket.ID))
	return nil
}

func (b *Bot) showAllTickets(ctx context.Context, chatID int64, user domain.User, page int) error {
	if !user.IsAdmin() {
		b.reply(chatID, "Administrators only.")
		return nil
	}

	var all []domain.Ticket
	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed} {
		tickets, err := b.tickets.GetTicketsByStatus(ctx, status)
		if err != nil {
			return err
		}
		all = append(all, tickets...)
	}
	b.sendTicketPage(chatID, fmt.Sprintf("All tickets (%d):", len(all)), all, page, cbAllPagePrefix)
	return nil
}

func (b *Bot) changeRole(ctx context.Context, chatID int64, requester domain.User, args string, role domain.Role) error {
	// Role administration is gated here at the transport; the service layer
	// operations themselves are requester-agnostic.
	if !requester.IsAdmin() {
		b.reply(chatID, "Administrators only.")
		return nil
	}
	userID, err := parseID(args)
	if err != nil {
		return err
	}

	var updated domain.User
	if role == domain.RoleAdmin {
		updated, err = b.users.PromoteToAdmin(ctx, userID)
	} else {
		updated, err = b.users.DemoteToClient(ctx, userID)
	}
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("%s is now %s.", updated.Name, roleLabel(updated.Role)))
	return nil
}

func (b *Bot) setName(ctx context.Context, chatID int64, user domain.User, args string) error {
	updated, err := b.users.UpdateUserName(ctx, user.ID, args)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Your name is now %s.", updated.Name))
	return nil
}

func (b *Bot) editTitle(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, rest, err := parseIDAndText(args, "Usage: /edittitle <ticket id> <new title>")
	if err != nil {
		b.reply(chatID, err.Error())
		return nil
	}
	ticket, err := b.tickets.UpdateTicketTitle(ctx, ticketID, rest, user.ID)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Ticket #%d renamed: %s", ticket.ID, ticket.Title))
	return nil
}

func (b *Bot) editDescription(ctx context.Context, chatID int64, user domain.User, args string) error {
	ticketID, rest, err := parseIDAndText(args, "Usage: /editdesc <ticket id> <new description>")
	if err != nil {
		b.reply(chatID, err.Error())
		return nil
	}
	ticket, err := b.tickets.UpdateTicketDescription(ctx, ticketID, rest, user.ID)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("Ticket #%d description updated.", ticket.ID))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	// Answer the callback immediately so the client stops its spinner.
	_, _ = b.api.Request(tgbotapi.NewCallback(cb.ID, ""))

	chatID := cb.Message.Chat.ID
	user, err := b.users.GetUserByTelegramID(ctx, strconv.FormatInt(cb.From.ID, 10))
	if err != nil {
		b.reply(chatID, userErrorText(err))
		return
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbViewPrefix):
		err = b.callbackTicketOp(ctx, chatID, user, data, cbViewPrefix, b.sendTicketDetail)
	case strings.HasPrefix(data, cbReplyPrefix):
		err = b.callbackTicketOp(ctx, chatID, user, data, cbReplyPrefix, func(ctx context.Context, chatID int64, user domain.User, id int64) error {
			return b.startReplyFlow(ctx, chatID, user, strconv.FormatInt(id, 10))
		})
	case strings.HasPrefix(data, cbClosePrefix):
		err = b.callbackTicketOp(ctx, chatID, user, data, cbClosePrefix, func(ctx context.Context, chatID int64, user domain.User, id int64) error {
			return b.closeTicket(ctx, chatID, user, strconv.FormatInt(id, 10))
		})
	case strings.HasPrefix(data, cbAssignMePrefix):
		err = b.callbackTicketOp(ctx, chatID, user, data, cbAssignMePrefix, func(ctx context.Context, chatID int64, user domain.User, id int64) error {
			ticket, aerr := b.tickets.AssignTicket(ctx, id, user.ID, user.ID)
			if aerr != nil {
				return aerr
			}
			b.reply(chatID, fmt.Sprintf("Ticket #%d is now yours.", ticket.ID))
			return nil
		})
	case strings.HasPrefix(data, cbReopenPrefix):
		err = b.callbackTicketOp(ctx, chatID, user, data, cbReopenPrefix, func(ctx context.Context, chatID int64, user domain.User, id int64) error {
			return b.reopenTicket(ctx, chatID, user, strconv.FormatInt(id, 10))
		})
	case strings.HasPrefix(data, cbMyPagePrefix):
		err = b.callbackPage(ctx, chatID, user, data, cbMyPagePrefix, b.showMyTickets)
	case strings.HasPrefix(data, cbAllPagePrefix):
		err = b.callbackPage(ctx, chatID, user, data, cbAllPagePrefix, b.showAllTickets)
	}

	if err != nil {
		b.metrics.RecordError("callback", errorCode(err))
		b.reply(chatID, userErrorText(err))
	}
}

func (b *Bot) callbackTicketOp(ctx context.Context, chatID int64, user domain.User, data, prefix string, op func(context.Context, int64, domain.User, int64) error) error {
	ticketID, err := parseID(strings.TrimPrefix(data, prefix))
	if err != nil {
		return err
	}
	return op(ctx, chatID, user, ticketID)
}

func (b *Bot) callbackPage(ctx context.Context, chatID int64, user domain.User, data, prefix string, op func(context.Context, int64, domain.User, int) error) error {
	page, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || page < 0 {
		return invalidIDError(data)
	}
	return op(ctx, chatID, user, page)
}

func (b *Bot) ticketKeyboard(t domain.Ticket, user domain.User) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(t.ID, 10)

	var row []tgbotapi.InlineKeyboardButton
	if !t.IsClosed() {
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("💬 Reply", cbReplyPrefix+id),
			tgbotapi.NewInlineKeyboardButtonData("🔒 Close", cbClosePrefix+id),
		)
	}

	var adminRow []tgbotapi.InlineKeyboardButton
	if user.IsAdmin() {
		if !t.IsClosed() && !t.IsAssignedTo(user.ID) {
			adminRow = append(adminRow, tgbotapi.NewInlineKeyboardButtonData("🙋 Take", cbAssignMePrefix+id))
		}
		if t.IsClosed() {
			adminRow = append(adminRow, tgbotapi.NewInlineKeyboardButtonData("♻️ Reopen", cbReopenPrefix+id))
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(adminRow) > 0 {
		rows = append(rows, adminRow)
	}
	if len(rows) == 0 {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("👁 View", cbViewPrefix+id),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func displayName(from *tgbotapi.User) string {
	name := strings.TrimSpace(strings.TrimSpace(from.FirstName) + " " + strings.TrimSpace(from.LastName))
	if name == "" {
		name = from.UserName
	}
	if name == "" {
		name = "user " + strconv.FormatInt(from.ID, 10)
	}
	return name
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidIDError(raw)
	}
	return id, nil
}

func parseIDAndText(args, usage string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return 0, "", fmt.Errorf("%s", usage)
	}
	id, err := parseID(parts[0])
	if err != nil {
		return 0, "", err
	}
	return id, strings.TrimSpace(parts[1]), nil
}

var _ service.Notifier = (*Bot)(nil)
