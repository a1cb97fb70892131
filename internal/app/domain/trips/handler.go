package trips

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/handlers"
	"github.com/FACorreiaa/trip-planner/internal/app/middleware"
	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts the trip endpoints on rg. The group must run
// middleware.OwnerMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateTrip)
	rg.GET("", h.ListTrips)
	rg.GET("/:id", h.GetTrip)
	rg.PUT("/:id", h.UpdateTrip)
	rg.PATCH("/:id", h.UpdateTrip)
	rg.DELETE("/:id", h.DeleteTrip)
}

func (h *Handler) CreateTrip(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var params models.CreateTripParams
	if err := c.ShouldBindJSON(&params); err != nil {
		handlers.RespondError(c, h.log, models.Validationf("invalid trip payload: %v", err))
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), ownerID, params)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *Handler) ListTrips(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	trips, err := h.service.ListTrips(c.Request.Context(), ownerID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *Handler) GetTrip(c *gin.Context) {
	ownerID, tripID, ok := h.ownerAndTrip(c)
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(c.Request.Context(), ownerID, tripID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) UpdateTrip(c *gin.Context) {
	ownerID, tripID, ok := h.ownerAndTrip(c)
	if !ok {
		return
	}

	var params models.UpdateTripParams
	if err := c.ShouldBindJSON(&params); err != nil {
		handlers.RespondError(c, h.log, models.Validationf("invalid trip payload: %v", err))
		return
	}

	trip, err := h.service.UpdateTrip(c.Request.Context(), ownerID, tripID, params)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) DeleteTrip(c *gin.Context) {
	ownerID, tripID, ok := h.ownerAndTrip(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTrip(c.Request.Context(), ownerID, tripID); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) owner(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		handlers.RespondError(c, h.log, models.ErrUnauthenticated)
		return uuid.Nil, false
	}
	return ownerID, true
}

func (h *Handler) ownerAndTrip(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := h.owner(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A malformed id can never name an existing trip.
		handlers.RespondError(c, h.log, models.NotFoundf("trip %q", c.Param("id")))
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, tripID, true
}
