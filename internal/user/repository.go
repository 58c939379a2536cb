package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/db"
)

// Репозиторий для чтения пользователей.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, email, COALESCE(phone, '') FROM users WHERE id = $1`

	var u User
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User", "id", id)
		}
		return nil, fmt.Errorf("repository: failed to select user %s: %w", id, err)
	}

	return &u, nil
}
