package storage

import (
	"context"

	"ms-storefront/internal/models"
)

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().Model(&user).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &user, nil
}

// UpsertUser records a signed-in user. The stored role is never overwritten.
func (d *DB) UpsertUser(ctx context.Context, user models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	_, err := d.Bun.NewInsert().
		Model(&user).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("display_name = EXCLUDED.display_name").
		Exec(ctx)
	return err
}

func (d *DB) SetUserRole(ctx context.Context, id, role string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rowsAffected(res) == 0 {
		return notFoundErr("user " + id)
	}
	return nil
}
