package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/domain"
)

// AssignableRepo implements domain.AssignableRepository.
type AssignableRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewAssignableRepo(read, write *sql.DB) *AssignableRepo {
	return &AssignableRepo{read: read, write: write}
}

func (r *AssignableRepo) ListByClass(ctx context.Context, class domain.AssetClass) ([]domain.Assignable, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, display_name, asset_type, state, reported_active
		 FROM assignables WHERE class = ? ORDER BY display_name, id`, string(class))
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.Assignable
	index := make(map[string]int)
	for rows.Next() {
		var (
			a      domain.Assignable
			active int64
		)
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.AssetType, &a.State, &active); err != nil {
			return nil, err
		}
		a.Class = class
		a.ReportedActive = active != 0
		index[a.ID] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := r.read.QueryContext(ctx,
		`SELECT assignable_id, kind, group_id, filter_id, filter_mode
		 FROM assignment_targets WHERE class = ? ORDER BY assignable_id, ord`, string(class))
	if err != nil {
		return nil, mapDBError(err)
	}
	defer trows.Close()

	for trows.Next() {
		var (
			assignableID, kind, mode string
			t                        domain.AssignmentTarget
		)
		if err := trows.Scan(&assignableID, &kind, &t.GroupID, &t.FilterID, &mode); err != nil {
			return nil, err
		}
		t.Kind = domain.TargetKind(kind)
		t.FilterMode = domain.FilterMode(mode)
		if i, ok := index[assignableID]; ok {
			out[i].Assignments = append(out[i].Assignments, t)
		}
	}
	return out, trows.Err()
}

// Replace swaps the stored collection for one asset class, targets
// included, in a single transaction.
func (r *AssignableRepo) Replace(ctx context.Context, class domain.AssetClass, assets []domain.Assignable) error {
	return inTx(ctx, r.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM assignment_targets WHERE class = ?`, string(class)); err != nil {
			return mapDBError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM assignables WHERE class = ?`, string(class)); err != nil {
			return mapDBError(err)
		}
		for _, a := range assets {
			if a.ID == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO assignables (id, class, display_name, asset_type, state, reported_active)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				a.ID, string(class), a.DisplayName, a.AssetType, a.State, boolToInt(a.ReportedActive))
			if err != nil {
				return mapDBError(err)
			}
			for ord, t := range a.Assignments {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO assignment_targets (assignable_id, class, ord, kind, group_id, filter_id, filter_mode)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					a.ID, string(class), ord, string(t.Kind), t.GroupID, t.FilterID, string(t.FilterMode))
				if err != nil {
					return mapDBError(err)
				}
			}
		}
		return nil
	})
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
