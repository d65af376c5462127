package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orsched/or-scheduling-backend/internal/api"
	"github.com/orsched/or-scheduling-backend/internal/booking"
	"github.com/orsched/or-scheduling-backend/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction       bool
	ProdOrigins        string
	DBPool             *pgxpool.Pool
	Logger             *zap.Logger
	SlotGranularity    time.Duration
	StoreRetryAttempts int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router          *gin.Engine
	ResourceService resource.Service
	BookingService  booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Resource Registry
	resourceRepo := resource.NewPgxRepository(cfg.DBPool, cfg.StoreRetryAttempts)
	resourceService := resource.NewService(resourceRepo)

	// Booking lifecycle, conflict detection, availability, queries
	bookingRepo := booking.NewPgxRepository(cfg.DBPool, cfg.StoreRetryAttempts)
	bookingService := booking.NewService(bookingRepo, resourceService, cfg.SlotGranularity, cfg.Logger)

	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          cfg.Logger,
		ResourceService: resourceService,
		BookingService:  bookingService,
	})

	return &Container{
		Router:          router,
		ResourceService: resourceService,
		BookingService:  bookingService,
	}
}
