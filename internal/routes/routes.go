package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/domain/places"
	"github.com/FACorreiaa/trip-planner/internal/app/domain/trips"
	"github.com/FACorreiaa/trip-planner/internal/app/handlers"
	"github.com/FACorreiaa/trip-planner/internal/app/middleware"
	database "github.com/FACorreiaa/trip-planner/internal/db"
	"github.com/FACorreiaa/trip-planner/internal/pkg/config"
)

type AppHandlers struct {
	Base   *handlers.BaseHandler
	Trips  *trips.Handler
	Places *places.Handler
}

// NewAppHandlers builds every repository, service and handler on the shared pool.
func NewAppHandlers(pool database.Pool, cfg *config.Config, logger *zap.Logger) *AppHandlers {
	tripRepo := trips.NewRepository(pool, logger)
	tripService := trips.NewServiceImpl(tripRepo, logger, trips.WithStrictOrdering(cfg.Trips.StrictOrdering))

	placeRepo := places.NewRepository(pool, logger)
	placeService := places.NewServiceImpl(placeRepo, logger, cfg.Places.SearchCacheTTL)

	return &AppHandlers{
		Base:   handlers.NewBaseHandler(logger, pool),
		Trips:  trips.NewHandler(tripService, logger),
		Places: places.NewHandler(placeService, logger),
	}
}

// Setup registers every route on r.
func Setup(r *gin.Engine, pool database.Pool, cfg *config.Config, logger *zap.Logger) {
	h := NewAppHandlers(pool, cfg, logger)

	r.GET("/healthz", h.Base.Healthz)

	api := r.Group("/api")
	h.Places.RegisterRoutes(api.Group("/places"))
	h.Trips.RegisterRoutes(api.Group("/trips", middleware.OwnerMiddleware(logger)))
}
