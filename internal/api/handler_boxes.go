package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/place"
	"asrs-inventory-backend/internal/store"
)

type createBoxRequest struct {
	BoxID      string `json:"boxId" binding:"required"`
	ColumnName string `json:"columnName" binding:"required"`
	RowNumber  *int   `json:"rowNumber" binding:"required"`
}

// GetBoxes handles GET /api/boxes.
func (h *Handler) GetBoxes(c *gin.Context) {
	boxes, err := h.store.ListBoxes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, boxes)
}

// GetBoxesWithCapacity handles GET /api/boxes/empty: boxes that still have
// at least one empty slot, or no recorded slots at all.
func (h *Handler) GetBoxesWithCapacity(c *gin.Context) {
	boxes, err := h.store.ListBoxesWithCapacity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, boxes)
}

// GetBox handles GET /api/boxes/:id.
func (h *Handler) GetBox(c *gin.Context) {
	box, err := h.store.GetBox(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, box)
}

// CreateBox handles POST /api/boxes.
func (h *Handler) CreateBox(c *gin.Context) {
	var req createBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide boxId, columnName and rowNumber"})
		return
	}
	if len(req.BoxID) > place.MaxBoxIDLen {
		respondError(c, &store.ValidationError{Msg: "boxId must be at most 2 characters"})
		return
	}
	box, err := h.store.CreateBox(c.Request.Context(), req.BoxID, req.ColumnName, *req.RowNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, box)
}

// DeleteBox handles DELETE /api/boxes/:id. Deletion is rejected while any
// subcompartment rows still reference the box.
func (h *Handler) DeleteBox(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteBox(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Box " + id + " deleted"})
}
