package models

// PriceFact is the normalized shape every price-source parser produces. The
// engine never sees source-specific formats; parsers reduce each publication
// to a list of these.
type PriceFact struct {
	// Free-text facility name/code used to locate the owning toll. Unused
	// once a fact group is addressed by ID.
	FacilityMatchKey string `json:"facility_match_key,omitempty"`

	Amount      float64     `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
	AxelType    AxelType    `json:"axel_type"`

	DayOfWeekFrom DayOfWeek `json:"day_of_week_from"`
	DayOfWeekTo   DayOfWeek `json:"day_of_week_to"`
	TimeOfDay     TimeOfDay `json:"time_of_day"`

	TimeFrom *string `json:"time_from,omitempty"`
	TimeTo   *string `json:"time_to,omitempty"`
}

// CorridorFactGroup addresses a batch of price facts at one corridor pair.
// The (calculator, from, to) record is fetched or created once per group.
type CorridorFactGroup struct {
	StateCalculatorID int64       `json:"state_calculator_id"`
	FromTollID        int64       `json:"from_toll_id"`
	ToTollID          int64       `json:"to_toll_id"`
	Facts             []PriceFact `json:"facts"`
}

// DirectFactGroup addresses a batch of price facts at one flat-rate facility.
type DirectFactGroup struct {
	TollID int64       `json:"toll_id"`
	Facts  []PriceFact `json:"facts"`
}
