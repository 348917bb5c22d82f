package postgres

import (
	"context"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type accountRepo struct {
	db *pgxpool.Pool
}

func newAccountRepo(db *pgxpool.Pool) Account {
	return &accountRepo{
		db: db,
	}
}

func (r *accountRepo) Create(ctx context.Context, account model.Account) (*model.Account, error) {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		ctx,
		"INSERT INTO accounts(id, email, password_hash, provider, provider_subject, created_at) VALUES($1, $2, $3, $4, $5, $6)",
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Provider,
		account.ProviderSubject,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return &account, nil
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "WHERE a.email = $1", email)
}

func (r *accountRepo) FindByProvider(ctx context.Context, provider string, subject string) (*model.Account, error) {
	return r.findOne(ctx, "WHERE a.provider = $1 AND a.provider_subject = $2", provider, subject)
}

func (r *accountRepo) findOne(ctx context.Context, where string, args ...interface{}) (*model.Account, error) {
	var account model.Account
	if err := r.db.QueryRow(
		ctx,
		"SELECT a.id, a.email, a.password_hash, a.provider, a.provider_subject, a.created_at FROM accounts a "+where,
		args...,
	).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Provider,
		&account.ProviderSubject,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &account, nil
}
