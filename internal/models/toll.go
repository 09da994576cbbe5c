package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Toll represents a physical or virtual toll facility.
// Name/Key/Number are operator-assigned codes and are unreliable: they may be
// absent, collide across facilities, or differ between data sources. The
// facility point, when present, is authoritative for all distance and
// containment queries.
type Toll struct {
	ID int64 `json:"id" db:"id"`

	Name   string `json:"name,omitempty" db:"name"`
	Key    string `json:"key,omitempty" db:"key"`
	Number string `json:"number,omitempty" db:"number"`

	// Facility location. Nil when the source never published coordinates.
	Lat *float64 `json:"lat,omitempty" db:"lat"`
	Lon *float64 `json:"lon,omitempty" db:"lon"`

	// Owning road and pricing authority, when known.
	RoadID            *int64 `json:"road_id,omitempty" db:"road_id"`
	StateCalculatorID *int64 `json:"state_calculator_id,omitempty" db:"state_calculator_id"`

	// Payment methods the facility accepts.
	PaymentMethods []PaymentType `json:"payment_methods,omitempty" db:"-"`

	// Legacy flat rates for facilities priced per crossing rather than
	// per entry/exit pair.
	Cash  *float64 `json:"cash,omitempty" db:"cash"`
	IPass *float64 `json:"ipass,omitempty" db:"ipass"`

	// Fine-grained direct prices owned by this facility.
	Prices []TollPrice `json:"prices,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Point returns the facility location, and whether one is set.
func (t *Toll) Point() (orb.Point, bool) {
	if t.Lat == nil || t.Lon == nil {
		return orb.Point{}, false
	}
	return orb.Point{*t.Lon, *t.Lat}, true
}

// HasCalculator reports whether the facility is priced by a corridor
// authority (entry/exit pair) rather than a flat per-crossing rate.
func (t *Toll) HasCalculator() bool {
	return t.StateCalculatorID != nil
}

// TollsResponse represents a paginated response of tolls
type TollsResponse struct {
	Data       []Toll `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
