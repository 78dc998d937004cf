package repository

import (
	"context"
	"database/sql"

	"assignlens/internal/domain"
)

// DeviceRepo implements domain.DeviceRepository.
type DeviceRepo struct {
	read  *sql.DB
	write *sql.DB
}

func NewDeviceRepo(read, write *sql.DB) *DeviceRepo {
	return &DeviceRepo{read: read, write: write}
}

func (r *DeviceRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	var d domain.Device
	err := r.read.QueryRowContext(ctx,
		`SELECT id, display_name, primary_user_upn, latest_user_upn, os, captured_at
		 FROM devices WHERE id = ?`, id).
		Scan(&d.ID, &d.DisplayName, &d.PrimaryUserUPN, &d.LatestUserUPN, &d.OS, &d.CapturedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &d, nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, display_name, primary_user_upn, latest_user_upn, os, captured_at
		 FROM devices ORDER BY display_name, id`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.DisplayName, &d.PrimaryUserUPN, &d.LatestUserUPN, &d.OS, &d.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeviceRepo) Upsert(ctx context.Context, d *domain.Device) error {
	if d.ID == "" {
		return domain.ErrValidation("device id is required")
	}
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO devices (id, display_name, primary_user_upn, latest_user_upn, os, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name = excluded.display_name,
		   primary_user_upn = excluded.primary_user_upn,
		   latest_user_upn = excluded.latest_user_upn,
		   os = excluded.os,
		   captured_at = excluded.captured_at`,
		d.ID, d.DisplayName, d.PrimaryUserUPN, d.LatestUserUPN, d.OS, d.CapturedAt)
	return mapDBError(err)
}
