package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/db/mapper"
	"assignlens/internal/domain"
)

// MembershipRepo implements domain.MembershipRepository.
type MembershipRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewMembershipRepo(read, write *sql.DB) *MembershipRepo {
	return &MembershipRepo{read: read, write: write}
}

func (r *MembershipRepo) ListForActor(ctx context.Context, deviceID string, actor domain.Actor) ([]domain.GroupMembership, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT group_id, display_name, kind, device_member_count, user_member_count, dynamic_rule
		 FROM group_memberships
		 WHERE device_id = ? AND actor = ?
		 ORDER BY display_name, group_id`, deviceID, string(actor))
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.GroupMembership
	for rows.Next() {
		var (
			m            domain.GroupMembership
			kind         string
			devCnt, uCnt sql.NullInt64
		)
		if err := rows.Scan(&m.GroupID, &m.DisplayName, &kind, &devCnt, &uCnt, &m.DynamicRuleText); err != nil {
			return nil, err
		}
		m.Kind = domain.MembershipKind(kind)
		m.DeviceMemberCount = mapper.CountFromDB(devCnt)
		m.UserMemberCount = mapper.CountFromDB(uCnt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Replace swaps the stored membership list for one (device, actor) pair in
// a single transaction.
func (r *MembershipRepo) Replace(ctx context.Context, deviceID string, actor domain.Actor, ms []domain.GroupMembership) error {
	if deviceID == "" {
		return domain.ErrValidation("device id is required")
	}
	return inTx(ctx, r.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM group_memberships WHERE device_id = ? AND actor = ?`,
			deviceID, string(actor)); err != nil {
			return mapDBError(err)
		}
		for _, m := range ms {
			if m.GroupID == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO group_memberships
				 (device_id, actor, group_id, display_name, kind, device_member_count, user_member_count, dynamic_rule)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				deviceID, string(actor), m.GroupID, m.DisplayName, string(m.Kind),
				mapper.CountToDB(m.DeviceMemberCount), mapper.CountToDB(m.UserMemberCount), m.DynamicRuleText)
			if err != nil {
				return mapDBError(err)
			}
		}
		return nil
	})
}
