package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

// Pinger is the part of the storage handle the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type BaseHandler struct {
	Logger *zap.Logger
	db     Pinger
}

func NewBaseHandler(logger *zap.Logger, db Pinger) *BaseHandler {
	return &BaseHandler{Logger: logger, db: db}
}

// Healthz reports whether the database answers within two seconds.
func (h *BaseHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.Logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  models.StatusError,
			Message: "database unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error envelope with the status matching err's kind.
// Server side failures are logged; their driver detail is not sent to the client.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", models.KindOf(err).String()),
			zap.Error(err))
		msg = "internal error: " + models.KindOf(err).String()
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Status: models.StatusError, Message: msg})
}
