package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgdesk/support-bot/internal/domain"
)

// UserRepository defines persistence access for users. Save is an upsert
// keyed by id: a zero id inserts and the returned value carries the
// generated id.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindByTelegramID(ctx context.Context, telegramID string) (domain.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == 0 {
		const query = `
            INSERT INTO users (telegram_id, name, role)
            VALUES ($1, $2, $3)
            RETURNING id, created_at`
		if err := r.pool.QueryRow(ctx, query,
			user.TelegramID,
			user.Name,
			user.Role,
		).Scan(&user.ID, &user.CreatedAt); err != nil {
			return domain.User{}, err
		}
		return user, nil
	}

	const query = `
        UPDATE users SET telegram_id=$1, name=$2, role=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		user.TelegramID,
		user.Name,
		user.Role,
		user.ID,
	)
	if err != nil {
		return domain.User{}, err
	}
	if cmd.RowsAffected() == 0 {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	const query = `
        SELECT id, telegram_id, name, role, created_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID string) (domain.User, error) {
	const query = `
        SELECT id, telegram_id, name, role, created_at
        FROM users WHERE telegram_id=$1`
	return r.fetchSingle(ctx, query, telegramID)
}

func (r *userRepository) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, telegram_id, name, role, created_at
        FROM users WHERE role=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.TelegramID,
			&user.Name,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.TelegramID,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
