package models

// TollEncounter is one toll facility met along a route, ordered by distance
// from the route origin.
type TollEncounter struct {
	Toll Toll `json:"toll"`

	// Distance from the route origin, meters.
	DistanceMeters float64 `json:"distance_meters"`
}

// PricedEntry is one charged crossing in a resolved itinerary. For corridor
// hops Toll is the exit facility of the hop. Nil amounts mean the crossing is
// known but its price is not (a placeholder, never silently dropped).
type PricedEntry struct {
	Toll Toll `json:"toll"`

	Cash  *float64 `json:"cash,omitempty"`
	IPass *float64 `json:"ipass,omitempty"`

	// Distance of the charged encounter from the route origin, meters.
	DistanceMeters float64 `json:"distance_meters"`
}

// Priced reports whether the entry carries at least one known amount.
func (e *PricedEntry) Priced() bool {
	return e.Cash != nil || e.IPass != nil
}
