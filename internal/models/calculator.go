package models

import "time"

// StateCalculator is a named pricing authority scoped to one jurisdiction.
// Corridor toll systems (ticket or gantry based) price the span between an
// entry and an exit facility; every such pair is a CalculatePrice owned by
// the jurisdiction's calculator.
type StateCalculator struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Short jurisdiction code, e.g. "IL", "NY-THRUWAY". Unique; concurrent
	// imports rely on the constraint to avoid duplicate calculators.
	Code string `json:"code" db:"code"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CalculatePrice is a priced directed pair (From -> To) under one calculator.
// Cash/IPass/Online are legacy scalar rates kept for records that predate the
// fine-grained TollPrice model; Prices carries the current facts.
type CalculatePrice struct {
	ID int64 `json:"id" db:"id"`

	StateCalculatorID int64 `json:"state_calculator_id" db:"state_calculator_id"`
	FromTollID        int64 `json:"from_toll_id" db:"from_toll_id"`
	ToTollID          int64 `json:"to_toll_id" db:"to_toll_id"`

	Cash   *float64 `json:"cash,omitempty" db:"cash"`
	IPass  *float64 `json:"ipass,omitempty" db:"ipass"`
	Online *float64 `json:"online,omitempty" db:"online"`

	Prices []TollPrice `json:"prices,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
