// Dev bootstrap: recreates the schema from the bun models and seeds demo
// data. Never run against a production database.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/config"
	"ms-booking/internal/models"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()
	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Dropping tables...")
	dropTables(ctx, db)

	log.Println("Creating tables...")
	createTables(ctx, db)

	log.Println("Seeding sample data...")
	seedData(ctx, db, cfg)

	log.Println("Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{(*models.Review)(nil), (*models.Booking)(nil), (*models.GalleryImage)(nil), (*models.User)(nil)}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{(*models.User)(nil), (*models.Booking)(nil), (*models.Review)(nil), (*models.GalleryImage)(nil)}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}
}

func seedData(ctx context.Context, db *bun.DB, cfg *config.Config) {
	now := time.Now()

	adminHash, err := auth.HashPassword("admin123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	userHash, _ := auth.HashPassword("password")

	adminID := uuid.New().String()
	userID := uuid.New().String()
	users := []models.User{
		{ID: adminID, Email: cfg.Auth.AdminEmail, FullName: "Astrobook Admin", Role: models.RoleAdmin, PasswordHash: adminHash, CreatedAt: now},
		{ID: userID, Email: "jane@example.com", FullName: "Jane Mensah", Role: models.RoleUser, PasswordHash: userHash, CreatedAt: now},
	}
	if _, err := db.NewInsert().Model(&users).Exec(ctx); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	tomorrow := now.AddDate(0, 0, 1).Format(booking.DateLayout)
	lastWeek := now.AddDate(0, 0, -7).Format(booking.DateLayout)
	paidID := uuid.New().String()
	bookings := []models.Booking{
		{
			BookingID: uuid.New().String(), UserID: userID, Name: "Jane Mensah",
			Email: "jane@example.com", Date: tomorrow, StartTime: "19:00", Duration: 2,
			Amount: booking.Price(19, 2).Total, Status: models.StatusPending, CreatedAt: now,
		},
		{
			BookingID: paidID, UserID: userID, Name: "Jane Mensah",
			Email: "jane@example.com", Date: lastWeek, StartTime: "10:00", Duration: 1,
			Amount: booking.Price(10, 1).Total, Status: models.StatusPaid, CreatedAt: now.AddDate(0, 0, -8),
		},
	}
	if _, err := db.NewInsert().Model(&bookings).Exec(ctx); err != nil {
		log.Fatalf("Failed to seed bookings: %v", err)
	}

	reviews := []models.Review{
		{
			ReviewID: uuid.New().String(), UserID: userID, BookingID: paidID,
			Name: "Jane Mensah", Rating: 5, Quote: "Best turf in town, lights work great after dark.",
			CreatedAt: now.AddDate(0, 0, -6),
		},
	}
	if _, err := db.NewInsert().Model(&reviews).Exec(ctx); err != nil {
		log.Fatalf("Failed to seed reviews: %v", err)
	}

	images := []models.GalleryImage{
		{ImageID: uuid.New().String(), Src: "/media/gallery/pitch-day.jpg", Alt: "Main pitch at noon", Hint: "turf pitch", CreatedAt: now},
		{ImageID: uuid.New().String(), Src: "/media/gallery/pitch-night.jpg", Alt: "Floodlit evening session", Hint: "night football", CreatedAt: now},
	}
	if _, err := db.NewInsert().Model(&images).Exec(ctx); err != nil {
		log.Fatalf("Failed to seed gallery: %v", err)
	}
}
