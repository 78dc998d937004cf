package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/domain"
)

// APIKeyRepo implements domain.APIKeyRepository. Only SHA-256 hashes are
// stored, never raw keys.
type APIKeyRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewAPIKeyRepo(read, write *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{read: read, write: write}
}

func (r *APIKeyRepo) GetByHash(ctx context.Context, hash string) (*domain.APIKeyRecord, error) {
	var rec domain.APIKeyRecord
	err := r.read.QueryRowContext(ctx,
		`SELECT key_hash, subject, created_at FROM api_keys WHERE key_hash = ?`, hash).
		Scan(&rec.KeyHash, &rec.Subject, &rec.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &rec, nil
}

func (r *APIKeyRepo) Create(ctx context.Context, rec *domain.APIKeyRecord) error {
	if rec.KeyHash == "" || rec.Subject == "" {
		return domain.ErrValidation("key hash and subject are required")
	}
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, subject) VALUES (?, ?)`,
		rec.KeyHash, rec.Subject)
	return mapDBError(err)
}
