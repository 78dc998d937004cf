package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/domain"
)

// FilterRepo implements domain.FilterRepository.
type FilterRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewFilterRepo(read, write *sql.DB) *FilterRepo {
	return &FilterRepo{read: read, write: write}
}

func (r *FilterRepo) List(ctx context.Context) ([]domain.AssignmentFilter, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, display_name, rule_text, platform FROM filters ORDER BY display_name, id`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.AssignmentFilter
	for rows.Next() {
		var f domain.AssignmentFilter
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.RuleText, &f.Platform); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FilterRepo) Replace(ctx context.Context, filters []domain.AssignmentFilter) error {
	return inTx(ctx, r.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM filters`); err != nil {
			return mapDBError(err)
		}
		for _, f := range filters {
			if f.ID == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO filters (id, display_name, rule_text, platform)
				 VALUES (?, ?, ?, ?)`,
				f.ID, f.DisplayName, f.RuleText, f.Platform)
			if err != nil {
				return mapDBError(err)
			}
		}
		return nil
	})
}
