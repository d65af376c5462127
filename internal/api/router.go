package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orsched/or-scheduling-backend/internal/booking"
	bookingHttp "github.com/orsched/or-scheduling-backend/internal/booking/http"
	"github.com/orsched/or-scheduling-backend/internal/resource"
	resourceHttp "github.com/orsched/or-scheduling-backend/internal/resource/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	Logger          *zap.Logger
	ResourceService resource.Service
	BookingService  booking.Service
}

// NewRouter initializes the HTTP router engine: middleware (logging, recovery,
// CORS) plus the routes of each module.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:8081"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	v1 := r.Group("/v1")
	{
		resourceHttp.RegisterRoutes(v1, resourceHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler)
	}

	return r
}
