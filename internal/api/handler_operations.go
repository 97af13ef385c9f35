package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/store"
)

type addProductRequest struct {
	BoxID  string `json:"boxId" binding:"required"`
	SubID  string `json:"subId" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
}

type retrieveProductRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// AddProduct handles POST /api/subcompartments/operations/add-product, the
// placement entry point of the allocation engine.
func (h *Handler) AddProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide boxId, subId, and itemId"})
		return
	}
	res, err := h.engine.Place(c.Request.Context(), req.BoxID, req.SubID, req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, res)
}

// RetrieveProduct handles POST /api/subcompartments/operations/retrieve-product,
// the bulk withdrawal entry point.
func (h *Handler) RetrieveProduct(c *gin.Context) {
	var req retrieveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &store.ValidationError{Msg: "Please provide itemId and quantity"})
		return
	}
	res, err := h.engine.Withdraw(c.Request.Context(), req.ItemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, res)
}
