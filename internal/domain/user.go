package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tgdesk/support-bot/pkg/apperrors"
)

// Role enumerates user roles.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

const maxNameLength = 100

// User is the domain model for everyone who talks to the bot, clients and
// administrators alike. User values are immutable; mutators return a new
// instance. A zero ID means the user has not been persisted yet.
type User struct {
	ID         int64
	TelegramID string
	Name       string
	Role       Role
	CreatedAt  time.Time
}

// NewUser constructs a user, validating its invariants.
func NewUser(id int64, telegramID, name string, role Role, createdAt time.Time) (User, error) {
	u := User{
		ID:         id,
		TelegramID: telegramID,
		Name:       name,
		Role:       role,
		CreatedAt:  createdAt,
	}
	if err := u.validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

func (u User) validate() error {
	if err := ValidateUserName(u.Name); err != nil {
		return err
	}
	if strings.TrimSpace(u.TelegramID) == "" {
		return apperrors.NewValidation("telegram id cannot be empty", map[string]any{"field": "telegram_id"})
	}
	if u.ID < 0 {
		return apperrors.NewValidation("invalid user id", map[string]any{"field": "id", "value": u.ID})
	}
	switch u.Role {
	case RoleAdmin, RoleClient:
	default:
		return apperrors.NewValidation("unknown role", map[string]any{"field": "role", "value": string(u.Role)})
	}
	return nil
}

// ValidateUserName checks the 1–100 character name bound.
func ValidateUserName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidation("user name cannot be empty", map[string]any{"field": "name"})
	}
	if n := utf8.RuneCountInString(name); n > maxNameLength {
		return apperrors.NewValidation("user name cannot exceed 100 characters", map[string]any{"field": "name", "length": n})
	}
	return nil
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsClient() bool {
	return u.Role == RoleClient
}

// HasRole reports whether the user has the given role.
func (u User) HasRole(role Role) bool {
	return u.Role == role
}

// CanManageTicket reports whether the user may change the ticket. Admins
// manage every ticket; clients only those they authored or are assigned to.
func (u User) CanManageTicket(t Ticket) bool {
	if u.IsAdmin() {
		return true
	}
	return t.IsAuthor(u.ID) || t.IsAssignedTo(u.ID)
}

// CanViewTicket reports whether the user may see the ticket.
func (u User) CanViewTicket(t Ticket) bool {
	if u.IsAdmin() {
		return true
	}
	return t.IsAuthor(u.ID) || t.IsAssignedTo(u.ID)
}

// CanAddMessageToTicket reports whether the user may post into the thread.
func (u User) CanAddMessageToTicket(t Ticket) bool {
	if u.IsAdmin() {
		return true
	}
	return t.IsAuthor(u.ID) || t.IsAssignedTo(u.ID)
}

// CanCloseTicket reports whether the user may close the ticket.
func (u User) CanCloseTicket(t Ticket) bool {
	if u.IsAdmin() {
		return true
	}
	return t.CanBeClosedBy(u.ID)
}

// CanAssignTickets is admin-only.
func (u User) CanAssignTickets() bool {
	return u.IsAdmin()
}

// CanReopenTickets is admin-only.
func (u User) CanReopenTickets() bool {
	return u.IsAdmin()
}

// CanCreateTickets holds for every registered user.
func (u User) CanCreateTickets() bool {
	return true
}

// ChangeRole returns a copy of the user with the new role.
func (u User) ChangeRole(role Role) (User, error) {
	switch role {
	case RoleAdmin, RoleClient:
	default:
		return User{}, apperrors.NewValidation("unknown role", map[string]any{"field": "role", "value": string(role)})
	}
	next := u
	next.Role = role
	return next, nil
}

// ChangeName returns a copy of the user with a validated new name.
func (u User) ChangeName(name string) (User, error) {
	if err := ValidateUserName(name); err != nil {
		return User{}, err
	}
	next := u
	next.Name = name
	return next, nil
}

// PromoteToAdmin upgrades a client.
func (u User) PromoteToAdmin() (User, error) {
	if u.IsAdmin() {
		return User{}, apperrors.NewBusinessRuleViolation("user is already an admin", "promotion")
	}
	return u.ChangeRole(RoleAdmin)
}

// DemoteToClient downgrades an admin.
func (u User) DemoteToClient() (User, error) {
	if u.IsClient() {
		return User{}, apperrors.NewBusinessRuleViolation("user is already a client", "demotion")
	}
	return u.ChangeRole(RoleClient)
}

// Equals compares users by identity.
func (u User) Equals(other User) bool {
	return u.ID == other.ID
}
