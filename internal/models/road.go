package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Road is a linear road geometry tagged with a route reference and a highway
// classification. Third-party map imports deliver a physical route as many
// disjoint fragments sharing one route reference; fragments whose endpoints
// fall within a small tolerance of each other are mergeable into one logical
// road.
type Road struct {
	ID int64 `json:"id" db:"id"`

	Name     string `json:"name,omitempty" db:"name"`
	RouteRef string `json:"route_ref,omitempty" db:"route_ref"`
	Highway  string `json:"highway,omitempty" db:"highway"`
	IsToll   bool   `json:"is_toll" db:"is_toll"`

	// Ordered lon/lat coordinate sequence. Nil when the source row carried
	// no geometry.
	Geometry orb.LineString `json:"geometry,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasGeometry reports whether the road carries a usable line geometry.
func (r *Road) HasGeometry() bool {
	return len(r.Geometry) >= 2
}

// GeometryJSON serializes the coordinate sequence as a JSON [lon,lat] array
// for storage in a text column.
func (r *Road) GeometryJSON() (string, error) {
	if r.Geometry == nil {
		return "", nil
	}
	coords := make([][]float64, len(r.Geometry))
	for i, pt := range r.Geometry {
		coords[i] = []float64{pt.Lon(), pt.Lat()}
	}
	b, err := json.Marshal(coords)
	if err != nil {
		return "", fmt.Errorf("failed to marshal road geometry: %w", err)
	}
	return string(b), nil
}

// ParseGeometryJSON restores the coordinate sequence from its stored form.
func ParseGeometryJSON(s string) (orb.LineString, error) {
	if s == "" {
		return nil, nil
	}
	var coords [][]float64
	if err := json.Unmarshal([]byte(s), &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal road geometry: %w", err)
	}
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("invalid coordinate in road geometry: %v", c)
		}
		line = append(line, orb.Point{c[0], c[1]})
	}
	return line, nil
}

// RoadsResponse represents a paginated response of roads
type RoadsResponse struct {
	Data       []Road `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
