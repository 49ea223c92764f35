package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tgdesk/support-bot/internal/domain"
	"github.com/tgdesk/support-bot/internal/repository"
	"github.com/tgdesk/support-bot/pkg/apperrors"
)

// UserService manages registration and role administration.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUser registers a user. A duplicate telegram id is a conflict.
func (s *UserService) CreateUser(ctx context.Context, telegramID, name string, role domain.Role) (domain.User, error) {
	existing, err := s.users.FindByTelegramID(ctx, telegramID)
	if err == nil && existing.ID != 0 {
		return domain.User{}, apperrors.NewConflict("user with this telegram id already exists", map[string]any{"telegram_id": telegramID})
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, apperrors.MapError(err)
	}

	user, err := domain.NewUser(0, telegramID, name, role, time.Now())
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return domain.User{}, apperrors.MapError(err)
	}
	return saved, nil
}

// GetUserByID fetches a user.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	return s.getUser(ctx, userID)
}

// GetUserByTelegramID fetches a user by external identity.
func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID string) (domain.User, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperrors.NewNotFound("user", map[string]any{"telegram_id": telegramID})
		}
		return domain.User{}, apperrors.MapError(err)
	}
	return user, nil
}

// GetOrCreateUser is the idempotent registration used on first bot contact.
// New users start as clients.
func (s *UserService) GetOrCreateUser(ctx context.Context, telegramID, name string) (domain.User, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, apperrors.MapError(err)
	}
	return s.CreateUser(ctx, telegramID, name, domain.RoleClient)
}

// UpdateUserName renames a user.
func (s *UserService) UpdateUserName(ctx context.Context, userID int64, newName string) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	renamed, err := user.ChangeName(newName)
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.users.Save(ctx, renamed)
	if err != nil {
		return domain.User{}, apperrors.MapError(err)
	}
	return saved, nil
}

// PromoteToAdmin upgrades a client to administrator.
func (s *UserService) PromoteToAdmin(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	promoted, err := user.PromoteToAdmin()
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.users.Save(ctx, promoted)
	if err != nil {
		return domain.User{}, apperrors.MapError(err)
	}
	return saved, nil
}

// DemoteToClient downgrades an administrator to client.
func (s *UserService) DemoteToClient(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	demoted, err := user.DemoteToClient()
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.users.Save(ctx, demoted)
	if err != nil {
		return domain.User{}, apperrors.MapError(err)
	}
	return saved, nil
}

// ChangeUserRole sets an explicit role.
func (s *UserService) ChangeUserRole(ctx context.Context, userID int64, newRole domain.Role) (domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	changed, err := user.ChangeRole(newRole)
	if err != nil {
		return domain.User{}, err
	}
	saved, err := s.users.Save(ctx, changed)
	if err != nil {
		return domain.User{}, apperrors.MapError(err)
	}
	return saved, nil
}

// GetAllAdmins lists administrators.
func (s *UserService) GetAllAdmins(ctx context.Context) ([]domain.User, error) {
	admins, err := s.users.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

// GetAllClients lists clients.
func (s *UserService) GetAllClients(ctx context.Context) ([]domain.User, error) {
	clients, err := s.users.FindByRole(ctx, domain.RoleClient)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// CanUserManageTicket loads the user and delegates to its predicate.
func (s *UserService) CanUserManageTicket(ctx context.Context, userID int64, ticket domain.Ticket) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.CanManageTicket(ticket), nil
}

// CanUserCloseTicket loads the user and delegates to its predicate.
func (s *UserService) CanUserCloseTicket(ctx context.Context, userID int64, ticket domain.Ticket) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.CanCloseTicket(ticket), nil
}

// CanUserViewTicket loads the user and delegates to its predicate.
func (s *UserService) CanUserViewTicket(ctx context.Context, userID int64, ticket domain.Ticket) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.CanViewTicket(ticket), nil
}

// CanUserAddMessageToTicket loads the user and delegates to its predicate.
func (s *UserService) CanUserAddMessageToTicket(ctx context.Context, userID int64, ticket domain.Ticket) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.CanAddMessageToTicket(ticket), nil
}

// IsUserAdmin reports whether the user is an administrator.
func (s *UserService) IsUserAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) getUser(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return domain.User{}, apperrors.MapError(err)
	}
	return user, nil
}
