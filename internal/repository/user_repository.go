package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/uow"
)

// UserRepository extends the generic contract with email lookup.
type UserRepository interface {
	Repository[*domain.User]

	// GetByEmail returns the live user registered with the address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	*pgxRepository[*domain.User]
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed user repository bound to the
// scope's unit of work.
func NewUserRepository(pool *pgxpool.Pool, unit *uow.PgxUnitOfWork) UserRepository {
	return &userRepository{
		pgxRepository: newPgxRepository(pool, unit, userMapper()),
		pool:          pool,
	}
}

func userMapper() Mapper[*domain.User] {
	return Mapper[*domain.User]{
		Table:  "users",
		Fields: []string{"name", "email", "password_hash", "status"},
		Values: func(u *domain.User) []any {
			return []any{u.Name, u.Email, u.PasswordHash, u.Status}
		},
		Scan: func(row pgx.Row) (*domain.User, error) {
			var u domain.User
			if err := row.Scan(
				&u.ID,
				&u.Name,
				&u.Email,
				&u.PasswordHash,
				&u.Status,
				&u.CreatedAt,
				&u.UpdatedAt,
				&u.DeletedAt,
			); err != nil {
				return nil, err
			}
			return &u, nil
		},
	}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at, deleted_at
        FROM users WHERE email=$1 AND deleted_at IS NULL`
	return r.m.Scan(r.pool.QueryRow(ctx, query, email))
}
