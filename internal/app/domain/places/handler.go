package places

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/handlers"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/save", h.SavePlaces)
	rg.GET("/search", h.SearchPlaces)
}

// SavePlaces ingests a batch of place records.
func (h *Handler) SavePlaces(c *gin.Context) {
	var req models.IngestPlacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, h.log, models.Validationf("invalid places payload: %v", err))
		return
	}

	n, err := h.service.IngestPlaces(c.Request.Context(), req.Places)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.IngestPlacesResponse{Status: models.StatusSuccess, Count: n})
}

// SearchPlaces answers GET /search?type=&latitude=&longitude=.
func (h *Handler) SearchPlaces(c *gin.Context) {
	category := c.Query("type")
	if category == "" {
		handlers.RespondError(c, h.log, models.Validationf("type is required"))
		return
	}
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		handlers.RespondError(c, h.log, models.Validationf("latitude must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		handlers.RespondError(c, h.log, models.Validationf("longitude must be a number"))
		return
	}

	places, err := h.service.SearchPlaces(c.Request.Context(), models.PlaceSearchFilter{
		Category:  category,
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SearchPlacesResponse{
		Status: models.StatusSuccess,
		Count:  len(places),
		Places: places,
	})
}
