package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func main() {
	drop := flag.Bool("drop", false, "drop all tables before creating them")
	seed := flag.Bool("seed", false, "insert demo catalog data")
	admin := flag.String("admin", "", "grant the admin role to this user id")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}
	db := storage.New(bun.NewDB(sqldb, pgdialect.New()))

	if *drop {
		log.Info("MIGRATE", "Dropping tables...")
		if err := db.DropSchema(ctx); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to drop tables: %v", err))
		}
	}

	log.Info("MIGRATE", "Creating tables...")
	if err := db.CreateSchema(ctx); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to create tables: %v", err))
	}

	if *seed {
		log.Info("MIGRATE", "Seeding sample data...")
		if err := seedData(ctx, db); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to seed data: %v", err))
		}
	}

	if *admin != "" {
		if err := db.SetUserRole(ctx, *admin, models.RoleAdmin); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to grant admin to %s: %v", *admin, err))
		}
		log.Info("MIGRATE", fmt.Sprintf("Granted admin role to %s", *admin))
	}

	log.Info("MIGRATE", "Done.")
}

func seedData(ctx context.Context, db *storage.DB) error {
	now := time.Now().UTC()

	venue := models.Venue{
		ID:        "venue001",
		Name:      "Gran Teatro Nacional",
		Address:   "Av. Javier Prado Este 2225",
		City:      "Lima",
		Capacity:  1500,
		CreatedAt: now,
	}
	if err := db.CreateVenue(ctx, venue); err != nil {
		return err
	}

	event := models.Event{
		ID:          "event001",
		Title:       "Summer Fest 2026",
		Description: "Annual summer music festival.",
		Category:    "music",
		VenueID:     venue.ID,
		Published:   true,
		CreatedAt:   now,
	}
	if err := db.CreateEvent(ctx, event); err != nil {
		return err
	}

	presentation := models.Presentation{
		ID:        "pres001",
		EventID:   event.ID,
		VenueID:   venue.ID,
		StartsAt:  now.AddDate(0, 1, 0),
		Price:     150,
		CreatedAt: now,
	}
	if err := db.CreatePresentation(ctx, presentation); err != nil {
		return err
	}

	var seats []models.Seat
	for _, row := range []string{"A", "B", "C"} {
		for n := 1; n <= 10; n++ {
			seats = append(seats, models.Seat{
				ID:             fmt.Sprintf("%s-%s%d", presentation.ID, row, n),
				PresentationID: presentation.ID,
				Section:        "Platea",
				Row:            row,
				Number:         n,
				Status:         models.SeatStatusAvailable,
				UpdatedAt:      now,
			})
		}
	}
	if err := db.CreateSeats(ctx, seats); err != nil {
		return err
	}

	return db.CreatePost(ctx, models.BlogPost{
		ID:          "post001",
		Slug:        "summer-fest-lineup",
		Title:       "Summer Fest lineup announced",
		Excerpt:     "The first names for this year's festival.",
		Content:     "<p>Tickets go on sale next week.</p>",
		Author:      "Storefront team",
		Published:   true,
		PublishedAt: now,
	})
}
