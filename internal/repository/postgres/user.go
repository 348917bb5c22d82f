package postgres

import (
	"context"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func newUserRepo(db *pgxpool.Pool) User {
	return &userRepo{
		db: db,
	}
}

// CreateIfNotExists inserts the profile unless one exists and returns the stored profile either way.
func (r *userRepo) CreateIfNotExists(ctx context.Context, user model.User) (*model.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO users(id, email, username, display_name, photo_url, role, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.PhotoURL,
		string(user.Role),
		user.CreatedAt,
	); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, user.ID)
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var (
		user model.User
		role string
	)
	if err := r.db.QueryRow(
		ctx,
		"SELECT u.id, u.email, u.username, u.display_name, u.photo_url, u.role, u.created_at FROM users u WHERE u.id = $1",
		id,
	).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.DisplayName,
		&user.PhotoURL,
		&role,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}

	user.Role = model.Role(role)
	return &user, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	tag, err := r.db.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", string(role), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
