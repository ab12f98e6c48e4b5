package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BlogPost struct {
	bun.BaseModel `bun:"table:blog_posts"`

	ID          string    `bun:"id,pk" json:"id"`
	Slug        string    `bun:"slug,unique,notnull" json:"slug"`
	Title       string    `bun:"title,notnull" json:"title"`
	Excerpt     string    `bun:"excerpt" json:"excerpt"`
	Content     string    `bun:"content" json:"content,omitempty"`
	Author      string    `bun:"author" json:"author"`
	Published   bool      `bun:"published" json:"published"`
	PublishedAt time.Time `bun:"published_at,nullzero" json:"publishedAt"`
}
