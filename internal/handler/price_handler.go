package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/service"
	"github.com/jengzang/tolls-backend-go/pkg/response"
)

// PriceHandler handles HTTP requests for the price ledger
type PriceHandler struct {
	ledger *service.LedgerService
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(ledger *service.LedgerService) *PriceHandler {
	return &PriceHandler{ledger: ledger}
}

type batchUpsertRequest struct {
	Corridor []models.CorridorFactGroup `json:"corridor,omitempty"`
	Direct   []models.DirectFactGroup   `json:"direct,omitempty"`
}

// BatchUpsert handles POST /api/v1/prices
func (h *PriceHandler) BatchUpsert(c *gin.Context) {
	var req batchUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Corridor) == 0 && len(req.Direct) == 0 {
		response.Error(c, http.StatusBadRequest, "Empty price batch", nil)
		return
	}

	result, err := h.ledger.BatchUpsert(req.Corridor, req.Direct)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to apply price batch", err)
		return
	}

	response.Success(c, result)
}
