package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tgdesk/support-bot/internal/config"
	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/repository"
)

// ReminderService periodically sends admins a digest of tickets that need
// attention: open unassigned tickets and in-progress tickets nobody has
// touched recently.
type ReminderService struct {
	cfg      config.ReminderConfig
	tickets  repository.TicketRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewReminderService creates the service.
func NewReminderService(cfg config.ReminderConfig, tickets repository.TicketRepository, users repository.UserRepository, notifier Notifier, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		cfg:      cfg,
		tickets:  tickets,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// Start schedules the digest job. It is a no-op when disabled.
func (s *ReminderService) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("reminder digest disabled")
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.CronSpec, s.runDigest); err != nil {
		return fmt.Errorf("schedule reminder digest: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder digest scheduled", zap.String("cron", s.cfg.CronSpec))
	return nil
}

// Stop cancels the scheduled job and waits for a running one to finish.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *ReminderService) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	digest, err := s.buildDigest(ctx)
	if err != nil {
		s.logger.Error("failed to build reminder digest", zap.Error(err))
		return
	}
	if digest == "" {
		return
	}

	admins, err := s.users.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to load admins for digest", zap.Error(err))
		return
	}
	for _, admin := range admins {
		if err := s.notifier.NotifyUser(ctx, admin, digest); err != nil {
			s.logger.Warn("failed to deliver digest", zap.Int64("admin_id", admin.ID), zap.Error(err))
		}
	}
}

func (s *ReminderService) buildDigest(ctx context.Context) (string, error) {
	open, err := s.tickets.FindByStatus(ctx, domain.TicketStatusOpen)
	if err != nil {
		return "", err
	}
	var unassigned []domain.Ticket
	for _, t := range open {
		if !t.IsAssigned() {
			unassigned = append(unassigned, t)
		}
	}

	var stale []domain.Ticket
	if staleAfter := s.cfg.StaleAfter(); staleAfter > 0 {
		cutoff := time.Now().Add(-staleAfter)
		stale, err = s.tickets.FindInProgressUpdatedBefore(ctx, cutoff)
		if err != nil {
			return "", err
		}
	}

	if len(unassigned) == 0 && len(stale) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Support desk digest\n")
	if len(unassigned) > 0 {
		fmt.Fprintf(&b, "\nUnassigned open tickets (%d):\n", len(unassigned))
		for _, t := range unassigned {
			fmt.Fprintf(&b, "  #%d %s\n", t.ID, t.Title)
		}
	}
	if len(stale) > 0 {
		fmt.Fprintf(&b, "\nStale in-progress tickets (%d):\n", len(stale))
		for _, t := range stale {
			fmt.Fprintf(&b, "  #%d %s\n", t.ID, t.Title)
		}
	}
	return b.String(), nil
}
