package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/repository"
	"github.com/jengzang/tolls-backend-go/internal/service"
	"github.com/jengzang/tolls-backend-go/internal/spatial"
	"github.com/jengzang/tolls-backend-go/pkg/response"
)

// RouteHandler handles route-level queries: which roads a route touches and
// what crossing its tolls costs.
type RouteHandler struct {
	tolls    *repository.TollRepository
	roadnet  *service.RoadNetService
	resolver *service.ResolverService
	engine   spatial.Engine
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(tolls *repository.TollRepository, roadnet *service.RoadNetService, resolver *service.ResolverService, engine spatial.Engine) *RouteHandler {
	return &RouteHandler{tolls: tolls, roadnet: roadnet, resolver: resolver, engine: engine}
}

type intersectingRequest struct {
	// Ordered [lon, lat] coordinates of the route.
	Polyline [][]float64 `json:"polyline" binding:"required,min=2"`

	// Optional explicit search box; defaults to the buffered polyline bound.
	MinLat *float64 `json:"min_lat,omitempty"`
	MaxLat *float64 `json:"max_lat,omitempty"`
	MinLon *float64 `json:"min_lon,omitempty"`
	MaxLon *float64 `json:"max_lon,omitempty"`
}

// GetIntersectingRoads handles POST /api/v1/routes/intersecting
func (h *RouteHandler) GetIntersectingRoads(c *gin.Context) {
	var req intersectingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	polyline := make(orb.LineString, 0, len(req.Polyline))
	for _, coord := range req.Polyline {
		if len(coord) < 2 {
			response.Error(c, http.StatusBadRequest, "Polyline coordinates must be [lon, lat] pairs", nil)
			return
		}
		polyline = append(polyline, orb.Point{coord[0], coord[1]})
	}

	var bbox orb.Bound
	if req.MinLat != nil && req.MaxLat != nil && req.MinLon != nil && req.MaxLon != nil {
		bbox = orb.Bound{
			Min: orb.Point{*req.MinLon, *req.MinLat},
			Max: orb.Point{*req.MaxLon, *req.MaxLat},
		}
	} else {
		bbox = h.engine.Buffer(polyline, spatial.MetersToDegrees(500))
	}

	roads, err := h.roadnet.ExpandIntersecting(polyline, bbox)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to expand intersecting roads", err)
		return
	}

	response.Success(c, gin.H{
		"data":  roads,
		"count": len(roads),
	})
}

type resolveRequest struct {
	Encounters []struct {
		TollID         int64   `json:"toll_id" binding:"required"`
		DistanceMeters float64 `json:"distance_meters"`
	} `json:"encounters" binding:"required,min=1"`
}

// ResolveRoute handles POST /api/v1/routes/resolve. Unknown toll IDs are
// reported back, never fatal for the rest of the batch.
func (h *RouteHandler) ResolveRoute(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var encounters []models.TollEncounter
	var notFound []int64
	for _, e := range req.Encounters {
		toll, err := h.tolls.GetTollByID(e.TollID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to load toll", err)
			return
		}
		if toll == nil {
			notFound = append(notFound, e.TollID)
			continue
		}
		encounters = append(encounters, models.TollEncounter{
			Toll:           *toll,
			DistanceMeters: e.DistanceMeters,
		})
	}

	sort.SliceStable(encounters, func(i, j int) bool {
		return encounters[i].DistanceMeters < encounters[j].DistanceMeters
	})

	entries, err := h.resolver.ResolveRoute(c.Request.Context(), encounters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to resolve route prices", err)
		return
	}

	response.Success(c, gin.H{
		"entries":   entries,
		"not_found": notFound,
	})
}
