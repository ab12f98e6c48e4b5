package storage

import (
	"context"
	"time"

	"ms-storefront/internal/models"

	"github.com/google/uuid"
)

func (d *DB) InsertAdminLog(ctx context.Context, entry models.AdminLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

// ListAdminLogs returns the newest entries first.
func (d *DB) ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	logs := []models.AdminLog{}
	err := d.Bun.NewSelect().
		Model(&logs).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
