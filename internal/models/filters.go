package models

// TollFilter represents filter parameters for querying tolls
type TollFilter struct {
	Name         string  `form:"name"`
	CalculatorID int64   `form:"calculatorId"`
	RoadID       int64   `form:"roadId"`
	MinLat       float64 `form:"minLat"`
	MaxLat       float64 `form:"maxLat"`
	MinLon       float64 `form:"minLon"`
	MaxLon       float64 `form:"maxLon"`
	Page         int     `form:"page"`
	PageSize     int     `form:"pageSize"`
}

// HasBound reports whether the filter carries a usable bounding box.
func (f *TollFilter) HasBound() bool {
	return f.MinLat != 0 || f.MaxLat != 0 || f.MinLon != 0 || f.MaxLon != 0
}

// RoadFilter represents filter parameters for querying roads
type RoadFilter struct {
	Name     string  `form:"name"`
	RouteRef string  `form:"routeRef"`
	Highway  string  `form:"highway"`
	TollOnly bool    `form:"tollOnly"`
	MinLat   float64 `form:"minLat"`
	MaxLat   float64 `form:"maxLat"`
	MinLon   float64 `form:"minLon"`
	MaxLon   float64 `form:"maxLon"`
	Page     int     `form:"page"`
	PageSize int     `form:"pageSize"`
}

// NearbyFilter represents parameters for graduated-radius proximity search
type NearbyFilter struct {
	Lat   float64 `form:"lat"`
	Lon   float64 `form:"lon"`
	Limit int     `form:"limit"`
}
