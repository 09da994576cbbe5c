package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/tolls-backend-go/internal/database"
	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/repository"
	"github.com/jengzang/tolls-backend-go/internal/service"
	"github.com/jengzang/tolls-backend-go/pkg/response"
)

// RoadHandler handles HTTP requests for roads
type RoadHandler struct {
	repo    *repository.RoadRepository
	roadnet *service.RoadNetService
}

// NewRoadHandler creates a new road handler
func NewRoadHandler(repo *repository.RoadRepository, roadnet *service.RoadNetService) *RoadHandler {
	return &RoadHandler{repo: repo, roadnet: roadnet}
}

// GetRoads handles GET /api/v1/roads; format=geojson returns a FeatureCollection
func (h *RoadHandler) GetRoads(c *gin.Context) {
	var filter models.RoadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	roads, total, err := h.repo.GetRoads(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get roads", err)
		return
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, roadsToGeoJSON(roads))
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

	response.Success(c, models.RoadsResponse{
		Data:       roads,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	})
}

func roadsToGeoJSON(roads []models.Road) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range roads {
		if !r.HasGeometry() {
			continue
		}
		coords := make([][]float64, len(r.Geometry))
		for i, pt := range r.Geometry {
			coords[i] = []float64{pt.Lon(), pt.Lat()}
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("id", r.ID)
		f.SetProperty("name", r.Name)
		f.SetProperty("route_ref", r.RouteRef)
		f.SetProperty("highway", r.Highway)
		f.SetProperty("is_toll", r.IsToll)
		fc.AddFeature(f)
	}
	return fc
}

// MergeRoads handles POST /api/v1/roads/merge. Reconstructs connected roads
// from stored fragments; persist=true replaces the consumed fragments with
// the merged roads in one transaction.
func (h *RoadHandler) MergeRoads(c *gin.Context) {
	merged, removedIDs, err := h.roadnet.MergeStoredRoads()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to merge roads", err)
		return
	}

	persisted := false
	if c.Query("persist") == "true" {
		err := database.Transaction(func(tx *sql.Tx) error {
			if err := h.repo.DeleteRoadsTx(tx, removedIDs); err != nil {
				return err
			}
			for i := range merged {
				if merged[i].ID == 0 {
					if err := h.repo.CreateRoadTx(tx, &merged[i]); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to persist merged roads", err)
			return
		}
		persisted = true
	}

	response.Success(c, gin.H{
		"roads":     merged,
		"removed":   len(removedIDs),
		"persisted": persisted,
	})
}
