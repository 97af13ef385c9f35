package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/model"
	"asrs-inventory-backend/internal/store"
)

type createSubCompartmentRequest struct {
	BoxID  string  `json:"boxId" binding:"required"`
	SubID  string  `json:"subId" binding:"required"`
	ItemID *string `json:"itemId"`
	Status string  `json:"status" binding:"required"`
}

type updateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	ItemID *string `json:"itemId"`
}

func parseStatus(raw string) (model.SlotStatus, bool) {
	switch model.SlotStatus(raw) {
	case model.StatusEmpty, model.StatusOccupied:
		return model.SlotStatus(raw), true
	}
	return "", false
}

// GetSubCompartments handles GET /api/subcompartments.
func (h *Handler) GetSubCompartments(c *gin.Context) {
	scs, err := h.store.ListSubCompartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, scs)
}

// GetSubCompartment handles GET /api/subcompartments/:place.
func (h *Handler) GetSubCompartment(c *gin.Context) {
	sc, err := h.store.GetSubCompartment(c.Request.Context(), c.Param("place"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sc)
}

// CreateSubCompartment handles POST /api/subcompartments: explicit slot
// creation. The place identity is derived from boxId and subId; callers
// cannot supply it directly.
func (h *Handler) CreateSubCompartment(c *gin.Context) {
	var req createSubCompartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide boxId, subId, and status"})
		return
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		respondError(c, &store.ValidationError{Msg: "status must be Empty or Occupied"})
		return
	}
	sc, err := h.store.CreateSubCompartment(c.Request.Context(), req.BoxID, req.SubID, req.ItemID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, sc)
}

// UpdateSubCompartmentStatus handles PATCH /api/subcompartments/:place/status.
func (h *Handler) UpdateSubCompartmentStatus(c *gin.Context) {
	plc := c.Param("place")
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide status"})
		return
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		respondError(c, &store.ValidationError{Msg: "status must be Empty or Occupied"})
		return
	}
	affected, err := h.store.UpdateSlotStatus(c.Request.Context(), plc, status, req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	if affected == 0 {
		respondError(c, &store.NotFoundError{Kind: "subcompartment", ID: plc})
		return
	}
	respondData(c, http.StatusOK, gin.H{"place": plc, "status": status, "item_id": req.ItemID})
}

// DeleteSubCompartment handles DELETE /api/subcompartments/:place.
func (h *Handler) DeleteSubCompartment(c *gin.Context) {
	plc := c.Param("place")
	affected, err := h.store.DeleteSubCompartment(c.Request.Context(), plc)
	if err != nil {
		respondError(c, err)
		return
	}
	if affected == 0 {
		respondError(c, &store.NotFoundError{Kind: "subcompartment", ID: plc})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "SubCompartment " + plc + " deleted"})
}
