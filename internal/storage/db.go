package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSeatUnavailable = errors.New("seat is not available")
	ErrVenueInUse      = errors.New("venue is still referenced by events")
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// Models lists every table in creation order.
var Models = []interface{}{
	(*models.Venue)(nil),
	(*models.Event)(nil),
	(*models.Presentation)(nil),
	(*models.Seat)(nil),
	(*models.User)(nil),
	(*models.AdminLog)(nil),
	(*models.NewsletterSubscriber)(nil),
	(*models.BlogPost)(nil),
}

// CreateSchema creates missing tables and the lookup indexes used by the services.
func (d *DB) CreateSchema(ctx context.Context) error {
	for _, m := range Models {
		if _, err := d.Bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*models.Presentation)(nil), "presentations_event_id_idx", "event_id"},
		{(*models.Seat)(nil), "seats_presentation_id_idx", "presentation_id"},
		{(*models.Event)(nil), "events_venue_id_idx", "venue_id"},
		{(*models.AdminLog)(nil), "admin_logs_created_at_idx", "created_at"},
	}
	for _, idx := range indexes {
		_, err := d.Bun.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema drops every table in reverse dependency order.
func (d *DB) DropSchema(ctx context.Context) error {
	for i := len(Models) - 1; i >= 0; i-- {
		if _, err := d.Bun.NewDropTable().Model(Models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", Models[i], err)
		}
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func notFoundErr(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
