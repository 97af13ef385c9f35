package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"asrs-inventory-backend/internal/store"
)

// GetTransactions handles GET /api/transactions?sort=&limit=.
func (h *Handler) GetTransactions(c *gin.Context) {
	sort := store.TranSort(c.DefaultQuery("sort", string(store.SortIDAsc)))
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, &store.ValidationError{Msg: "limit must be an integer"})
			return
		}
		limit = n
	}
	recs, err := h.store.ListTransactions(c.Request.Context(), sort, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, recs)
}

// GetTransaction handles GET /api/transactions/:id.
func (h *Handler) GetTransaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, &store.ValidationError{Msg: "Invalid transaction ID"})
		return
	}
	rec, err := h.store.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rec)
}

// GetTransactionsByItem handles GET /api/transactions/item/:itemId, newest
// first.
func (h *Handler) GetTransactionsByItem(c *gin.Context) {
	recs, err := h.store.ListTransactionsByItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, recs)
}
