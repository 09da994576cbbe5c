package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/repository"
	"github.com/jengzang/tolls-backend-go/internal/service"
	"github.com/jengzang/tolls-backend-go/pkg/response"
)

// TollHandler handles HTTP requests for toll facilities
type TollHandler struct {
	repo    *repository.TollRepository
	matcher *service.MatcherService
	limit   int
}

// NewTollHandler creates a new toll handler
func NewTollHandler(repo *repository.TollRepository, matcher *service.MatcherService, nearbyLimit int) *TollHandler {
	return &TollHandler{repo: repo, matcher: matcher, limit: nearbyLimit}
}

// GetTolls handles GET /api/v1/tolls
func (h *TollHandler) GetTolls(c *gin.Context) {
	var filter models.TollFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	tolls, total, err := h.repo.GetTolls(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get tolls", err)
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, models.TollsResponse{
		Data:       tolls,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}

// GetTollByID handles GET /api/v1/tolls/:id
func (h *TollHandler) GetTollByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid toll ID", err)
		return
	}

	toll, err := h.repo.GetTollByID(id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get toll", err)
		return
	}
	if toll == nil {
		response.Error(c, http.StatusNotFound, "Toll not found", nil)
		return
	}

	response.Success(c, toll)
}

type matchRequest struct {
	Names  []string `json:"names" binding:"required,min=1"`
	MinLat float64  `json:"min_lat"`
	MaxLat float64  `json:"max_lat"`
	MinLon float64  `json:"min_lon"`
	MaxLon float64  `json:"max_lon"`
}

// MatchFacilities handles POST /api/v1/tolls/match
func (h *TollHandler) MatchFacilities(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	region := orb.Bound{
		Min: orb.Point{req.MinLon, req.MinLat},
		Max: orb.Point{req.MaxLon, req.MaxLat},
	}

	result, err := h.matcher.MatchFacilities(c.Request.Context(), req.Names, region)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to match facilities", err)
		return
	}

	response.Success(c, result)
}

// GetNearby handles GET /api/v1/tolls/nearby
func (h *TollHandler) GetNearby(c *gin.Context) {
	var filter models.NearbyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if filter.Lat == 0 && filter.Lon == 0 {
		response.Error(c, http.StatusBadRequest, "lat and lon are required", nil)
		return
	}
	if filter.Limit < 1 {
		filter.Limit = h.limit
	}

	tolls, err := h.matcher.FindNearby(orb.Point{filter.Lon, filter.Lat}, filter.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to search nearby tolls", err)
		return
	}

	response.Success(c, gin.H{
		"data":  tolls,
		"count": len(tolls),
	})
}
