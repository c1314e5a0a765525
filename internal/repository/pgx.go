package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/uow"
)

// Mapper describes how one entity kind maps onto its table. Fields excludes
// the shared meta columns (id, created_at, updated_at, deleted_at), which the
// generic repository manages itself.
type Mapper[T domain.Entity] struct {
	Table  string
	Fields []string
	Values func(entity T) []any
	Scan   func(row pgx.Row) (T, error)
}

// pgxRepository is the Postgres adapter for the generic repository contract.
// Reads go straight to the pool; writes are staged on the scope's unit of
// work and flushed atomically by SaveChanges.
type pgxRepository[T domain.Entity] struct {
	pool *pgxpool.Pool
	unit *uow.PgxUnitOfWork
	m    Mapper[T]
}

func newPgxRepository[T domain.Entity](pool *pgxpool.Pool, unit *uow.PgxUnitOfWork, m Mapper[T]) *pgxRepository[T] {
	return &pgxRepository[T]{pool: pool, unit: unit, m: m}
}

func (r *pgxRepository[T]) selectList() string {
	return "id, " + strings.Join(r.m.Fields, ", ") + ", created_at, updated_at, deleted_at"
}

func (r *pgxRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1 AND deleted_at IS NULL",
		r.selectList(), r.m.Table)
	return r.m.Scan(r.pool.QueryRow(ctx, query, id))
}

func (r *pgxRepository[T]) Find(ctx context.Context, spec Specification[T]) ([]T, error) {
	clause, args := spec.Clause()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE deleted_at IS NULL AND (%s) ORDER BY created_at",
		r.selectList(), r.m.Table, rebind(clause))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		entity, err := r.m.Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}

func (r *pgxRepository[T]) Add(ctx context.Context, entity T) error {
	meta := entity.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	columns := append([]string{"id"}, r.m.Fields...)
	columns = append(columns, "created_at", "updated_at")
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.m.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	args := append([]any{meta.ID}, r.m.Values(entity)...)
	args = append(args, meta.CreatedAt, meta.UpdatedAt)

	r.unit.Stage(func(ctx context.Context, tx pgx.Tx) (int64, error) {
		cmd, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return cmd.RowsAffected(), nil
	})
	return nil
}

func (r *pgxRepository[T]) Update(ctx context.Context, entity T) error {
	meta := entity.Meta()
	meta.UpdatedAt = time.Now().UTC()

	sets := make([]string, 0, len(r.m.Fields)+1)
	for i, field := range r.m.Fields {
		sets = append(sets, fmt.Sprintf("%s=$%d", field, i+1))
	}
	sets = append(sets, fmt.Sprintf("updated_at=$%d", len(r.m.Fields)+1))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id=$%d AND deleted_at IS NULL",
		r.m.Table, strings.Join(sets, ", "), len(r.m.Fields)+2)

	args := append(r.m.Values(entity), meta.UpdatedAt, meta.ID)

	r.unit.Stage(func(ctx context.Context, tx pgx.Tx) (int64, error) {
		cmd, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		if cmd.RowsAffected() == 0 {
			return 0, ErrNotFound
		}
		return cmd.RowsAffected(), nil
	})
	return nil
}

func (r *pgxRepository[T]) Remove(ctx context.Context, entity T) error {
	meta := entity.Meta()
	now := time.Now().UTC()
	meta.DeletedAt = &now
	meta.UpdatedAt = now

	query := fmt.Sprintf("UPDATE %s SET deleted_at=$1, updated_at=$2 WHERE id=$3 AND deleted_at IS NULL",
		r.m.Table)

	r.unit.Stage(func(ctx context.Context, tx pgx.Tx) (int64, error) {
		cmd, err := tx.Exec(ctx, query, now, now, meta.ID)
		if err != nil {
			return 0, err
		}
		if cmd.RowsAffected() == 0 {
			return 0, ErrNotFound
		}
		return cmd.RowsAffected(), nil
	})
	return nil
}

// rebind rewrites ? placeholders from specification clauses into the
// positional $n form pgx expects.
func rebind(clause string) string {
	var b strings.Builder
	n := 0
	for _, ch := range clause {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
