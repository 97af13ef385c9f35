package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/store"
)

type createItemRequest struct {
	ItemID      string `json:"itemId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GetItems handles GET /api/items.
func (h *Handler) GetItems(c *gin.Context) {
	items, err := h.store.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items)
}

// GetAvailableItems handles GET /api/items/available: items with their
// current occupied-slot counts.
func (h *Handler) GetAvailableItems(c *gin.Context) {
	avail, err := h.store.ListAvailableItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, avail)
}

// GetItem handles GET /api/items/:id.
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

// GetItemLocations handles GET /api/items/:id/locations: the occupied slots
// currently holding the item, joined with box grid positions.
func (h *Handler) GetItemLocations(c *gin.Context) {
	locs, err := h.store.ItemLocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, locs)
}

// GetItemIDExists handles GET /api/items/:id/exists.
func (h *Handler) GetItemIDExists(c *gin.Context) {
	exists, err := h.store.ItemIDExists(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exists": exists})
}

// CreateItem handles POST /api/items.
func (h *Handler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide itemId and name"})
		return
	}
	item, err := h.store.CreateItem(c.Request.Context(), req.ItemID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

// DeleteItem handles DELETE /api/items/:id. Deletion is rejected while the
// item still occupies any slot.
func (h *Handler) DeleteItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item " + id + " deleted"})
}
