package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/engine"
	"asrs-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	engine  *engine.Engine
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, eng *engine.Engine, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		engine:  eng,
		webpush: webpushOptions,
	}
}

// respondList writes the success envelope for collection responses.
func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}

// respondData writes the success envelope for single-object responses.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError maps the store error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		validation   *store.ValidationError
		notFound     *store.NotFoundError
		slotConflict *store.SlotConflictError
		insufficient *store.InsufficientStockError
		conflict     *store.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": validation.Msg})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": notFound.Error()})
	case errors.As(err, &slotConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": slotConflict.Error()})
	case errors.As(err, &insufficient):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success":   false,
			"error":     insufficient.Error(),
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": conflict.Msg})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Server Error",
			"message": err.Error(),
		})
	}
}
