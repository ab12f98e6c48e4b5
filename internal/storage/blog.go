package storage

import (
	"context"

	"ms-storefront/internal/models"
)

// ListPublishedPosts returns post summaries without their content.
func (d *DB) ListPublishedPosts(ctx context.Context, limit int) ([]models.BlogPost, error) {
	posts := []models.BlogPost{}
	err := d.Bun.NewSelect().
		Model(&posts).
		ExcludeColumn("content").
		Where("published = ?", true).
		Order("published_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (d *DB) GetPublishedPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := d.Bun.NewSelect().
		Model(&post).
		Where("slug = ?", slug).
		Where("published = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "post "+slug)
	}
	return &post, nil
}

func (d *DB) CreatePost(ctx context.Context, post models.BlogPost) error {
	_, err := d.Bun.NewInsert().Model(&post).Exec(ctx)
	return err
}
