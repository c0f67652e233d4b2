package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	bookingdb "ms-booking/internal/booking/db"
	rediswrap "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/gallery"
	gallerydb "ms-booking/internal/gallery/db"
	"ms-booking/internal/gallery/gallery_api"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/media"
	"ms-booking/internal/models"
	"ms-booking/internal/payments"
	"ms-booking/internal/receipts"
	"ms-booking/internal/reviews"
	reviewdb "ms-booking/internal/reviews/db"
	"ms-booking/internal/reviews/reviews_api"
	"ms-booking/internal/sse"
	"ms-booking/internal/users"
	userdb "ms-booking/internal/users/db"
	"ms-booking/internal/users/users_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	if _, err := redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

// subscribeSlotUnlocks cancels Pending bookings whose slot lock expired before
// payment was confirmed. The lock key format is slot_lock:<date>:<HH:00>.
func subscribeSlotUnlocks(rdb *redis.Client, svc *booking.BookingService, db *bookingdb.DB, log *logger.Logger) {
	ctx := context.Background()

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	log.Info("REDIS", "Subscribed to Redis keyevent expired notifications")

	go func() {
		for msg := range pubsub.Channel() {
			if !strings.HasPrefix(msg.Payload, "slot_lock:") {
				continue
			}
			parts := strings.SplitN(msg.Payload, ":", 3)
			if len(parts) != 3 {
				continue
			}
			date, slot := parts[1], parts[2]
			log.Info("SLOT_UNLOCK", fmt.Sprintf("Slot lock expired for %s %s", date, slot))

			bookings, err := db.GetBookingsByDate(date)
			if err != nil {
				log.Error("SLOT_UNLOCK", fmt.Sprintf("Failed to load bookings for %s: %v", date, err))
				continue
			}
			for _, b := range bookings {
				if b.Status != models.StatusPending {
					continue
				}
				startHour, perr := booking.ParseSlot(b.StartTime)
				if perr != nil {
					continue
				}
				slotHour, perr := booking.ParseSlot(slot)
				if perr != nil {
					continue
				}
				if !booking.Overlaps(startHour, b.Duration, slotHour, 1) {
					continue
				}
				if err := svc.CancelBooking("", true, b.BookingID); err != nil {
					log.Error("SLOT_UNLOCK", fmt.Sprintf("Failed to cancel booking %s after lock expiry: %v", b.BookingID, err))
				} else {
					log.Info("SLOT_UNLOCK", fmt.Sprintf("Booking %s cancelled: payment window expired", b.BookingID))
				}
			}
		}
	}()
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		defer runner.Close()
	}

	var publisher booking.Publisher = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.Topics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		publisher = producer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Info("KAFKA", "Kafka disabled, booking events will only reach SSE clients")
	}

	mediaStore, err := media.NewDiskStore(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		logger.Fatal("MEDIA", fmt.Sprintf("Failed to initialize media store: %v", err))
	}

	emitter := sse.NewBookingEventEmitter()
	gateway := payments.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, nil)
	qrGen := receipts.NewQRGenerator(cfg.Media.QRKey)

	bookingStore := &bookingdb.DB{Bun: bunDB}
	bookingService := booking.NewBookingService(
		bookingStore,
		rediswrap.NewRedis(redisClient),
		gateway,
		publisher,
		emitter,
		mediaStore,
		qrGen,
		logger,
	)

	userService := users.NewUserService(&userdb.DB{Bun: bunDB}, mediaStore, logger, cfg.Auth.JWTSecret, cfg.Auth.AdminEmail, cfg.Auth.TokenTTL)
	reviewService := reviews.NewReviewService(&reviewdb.DB{Bun: bunDB}, bookingService, userService, logger)
	galleryService := gallery.NewGalleryService(&gallerydb.DB{Bun: bunDB}, mediaStore, logger)

	bookingHandler := booking_api.NewHandler(bookingService, logger)
	sseHandler := booking_api.NewSSEHandler(logger, emitter)
	userHandler := users_api.NewHandler(userService, logger)
	reviewHandler := reviews_api.NewHandler(reviewService, logger)
	galleryHandler := gallery_api.NewHandler(galleryService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Post("/api/auth/register", userHandler.Register)
	r.Post("/api/auth/login", userHandler.Login)
	r.Get("/api/bookings/availability", bookingHandler.GetAvailability)
	r.Get("/api/reviews", reviewHandler.ListReviews)
	r.Get("/api/reviews/testimonials", reviewHandler.Testimonials)
	r.Get("/api/gallery", galleryHandler.ListImages)
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.Media.Dir))))
	logger.Info("ROUTER", "Public routes registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		logger.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateMe)
			r.Post("/me/avatar", userHandler.UploadAvatar)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", bookingHandler.PlaceBooking)
				r.Get("/mine", bookingHandler.GetMyBookings)
				r.Get("/{bookingId}", bookingHandler.GetBooking)
				r.Delete("/{bookingId}", bookingHandler.CancelBooking)
				r.Post("/{bookingId}/verify", bookingHandler.VerifyPayment)
				r.Post("/{bookingId}/flyer", bookingHandler.UploadFlyer)
				r.Put("/{bookingId}/reschedule", bookingHandler.Reschedule)
			})
			logger.Info("ROUTER", "Booking routes registered under /api/bookings")

			// Popup callbacks only know the gateway reference; the service
			// resolves the booking from it.
			r.Post("/payments/verify", bookingHandler.VerifyPayment)

			r.Post("/reviews", reviewHandler.SubmitReview)
			r.Get("/events/mine", sseHandler.HandleMyBookingEvents)

			// --- Admin Routes ---
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/admin/bookings", bookingHandler.ListBookings)
				r.Put("/admin/bookings/{bookingId}", bookingHandler.AdminUpdateBooking)
				r.Get("/admin/users", userHandler.ListUsers)
				r.Delete("/admin/users/{userId}", userHandler.DeleteUser)
				r.Post("/admin/gallery", galleryHandler.AddImage)
				r.Delete("/admin/gallery/{imageId}", galleryHandler.DeleteImage)
				r.Get("/events", sseHandler.HandleAllBookingEvents)
			})
			logger.Info("ROUTER", "Admin routes registered")
		})
	})

	// No WriteTimeout: SSE connections stay open indefinitely.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	logger.Info("REDIS", "Starting slot unlock subscription")
	subscribeSlotUnlocks(redisClient, bookingService, bookingStore, logger)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Booking Service shutdown complete")
	}
}
