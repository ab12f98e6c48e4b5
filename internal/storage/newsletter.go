package storage

import (
	"context"

	"ms-storefront/internal/models"
)

func (d *DB) SubscriberExists(ctx context.Context, email string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.NewsletterSubscriber)(nil)).
		Where("email = ?", email).
		Exists(ctx)
}

func (d *DB) InsertSubscriber(ctx context.Context, sub models.NewsletterSubscriber) error {
	_, err := d.Bun.NewInsert().Model(&sub).Exec(ctx)
	return err
}
