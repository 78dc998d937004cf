package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/db/mapper"
	"assignlens/internal/domain"
)

// SettingsRepo implements domain.SettingsRepository. Setting trees are
// stored as a JSON payload per policy; see the mapper package.
type SettingsRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewSettingsRepo(read, write *sql.DB) *SettingsRepo {
	return &SettingsRepo{read: read, write: write}
}

func (r *SettingsRepo) GetByPolicyID(ctx context.Context, policyID string) (*domain.PolicySettings, error) {
	var (
		name    string
		payload []byte
	)
	err := r.read.QueryRowContext(ctx,
		`SELECT policy_name, payload FROM policy_settings WHERE policy_id = ?`, policyID).
		Scan(&name, &payload)
	if err != nil {
		return nil, mapDBError(err)
	}
	return mapper.SettingsFromPayload(policyID, name, payload)
}

func (r *SettingsRepo) Upsert(ctx context.Context, ps *domain.PolicySettings) error {
	if ps.PolicyID == "" {
		return domain.ErrValidation("policy id is required")
	}
	payload, err := mapper.SettingsToPayload(ps)
	if err != nil {
		return err
	}
	_, err = r.write.ExecContext(ctx,
		`INSERT INTO policy_settings (policy_id, policy_name, payload)
		 VALUES (?, ?, ?)
		 ON CONFLICT(policy_id) DO UPDATE SET
		   policy_name = excluded.policy_name,
		   payload = excluded.payload`,
		ps.PolicyID, ps.PolicyName, string(payload))
	return mapDBError(err)
}
