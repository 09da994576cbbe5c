package models

import (
	"fmt"
	"time"
)

// PaymentType enumerates how a crossing is paid for.
type PaymentType int

const (
	PaymentUnknown PaymentType = iota
	PaymentTransponder
	PaymentOnline
	PaymentCash
	PaymentEZPass
	PaymentEZPassOutOfState
	PaymentVideo
	PaymentSunPass
	PaymentAccount
	PaymentNonAccount
)

var paymentTypeNames = map[PaymentType]string{
	PaymentUnknown:          "UNKNOWN",
	PaymentTransponder:      "TRANSPONDER",
	PaymentOnline:           "ONLINE",
	PaymentCash:             "CASH",
	PaymentEZPass:           "EZPASS",
	PaymentEZPassOutOfState: "EZPASS_OUT_OF_STATE",
	PaymentVideo:            "VIDEO",
	PaymentSunPass:          "SUNPASS",
	PaymentAccount:          "ACCOUNT",
	PaymentNonAccount:       "NON_ACCOUNT",
}

func (p PaymentType) String() string {
	if name, ok := paymentTypeNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTransponderClass reports whether the payment type belongs to the
// transponder family for legacy scalar fallback purposes.
func (p PaymentType) IsTransponderClass() bool {
	switch p {
	case PaymentTransponder, PaymentEZPass, PaymentEZPassOutOfState, PaymentSunPass, PaymentAccount:
		return true
	}
	return false
}

// AxelType enumerates vehicle axle classes. AxelUnknown matches sources that
// publish a single rate regardless of class.
type AxelType int

const (
	AxelUnknown AxelType = iota
	AxelL1
	AxelL2
	AxelL3
	AxelL4
	AxelL5
	AxelL6
	AxelL7
	AxelL8
	AxelL9
)

func (a AxelType) String() string {
	if a >= AxelL1 && a <= AxelL9 {
		return fmt.Sprintf("L%d", int(a))
	}
	return "UNKNOWN"
}

// DayOfWeek is a day index with a dedicated "any" value for rates that do not
// vary by day. Monday=1 .. Sunday=7 so the zero value means unrestricted.
type DayOfWeek int

const (
	DayAny DayOfWeek = iota
	DayMonday
	DayTuesday
	DayWednesday
	DayThursday
	DayFriday
	DaySaturday
	DaySunday
)

// TimeOfDay buckets rates that vary between day and night tariffs.
type TimeOfDay int

const (
	TimeAny TimeOfDay = iota
	TimeDay
	TimeNight
)

// PriceOwner identifies who owns a TollPrice: either a Toll directly (flat,
// non-route-dependent price) or a CalculatePrice (corridor entry/exit price).
// Exactly one of the two is set.
type PriceOwner struct {
	TollID           *int64
	CalculatePriceID *int64
}

// DirectOwner returns an owner tag for a facility-owned price.
func DirectOwner(tollID int64) PriceOwner {
	return PriceOwner{TollID: &tollID}
}

// CorridorOwner returns an owner tag for a corridor-pair price.
func CorridorOwner(calculatePriceID int64) PriceOwner {
	return PriceOwner{CalculatePriceID: &calculatePriceID}
}

// Validate rejects owners with both or neither reference set.
func (o PriceOwner) Validate() error {
	if (o.TollID == nil) == (o.CalculatePriceID == nil) {
		return fmt.Errorf("price owner must reference exactly one of toll or calculate price")
	}
	return nil
}

// TollPrice is the finest-grained price fact.
type TollPrice struct {
	ID int64 `json:"id" db:"id"`

	// Owner; exactly one of the two columns is populated.
	TollID           *int64 `json:"toll_id,omitempty" db:"toll_id"`
	CalculatePriceID *int64 `json:"calculate_price_id,omitempty" db:"calculate_price_id"`

	Amount        float64     `json:"amount" db:"amount"`
	PaymentType   PaymentType `json:"payment_type" db:"payment_type"`
	AxelType      AxelType    `json:"axel_type" db:"axel_type"`
	DayOfWeekFrom DayOfWeek   `json:"day_of_week_from" db:"day_of_week_from"`
	DayOfWeekTo   DayOfWeek   `json:"day_of_week_to" db:"day_of_week_to"`
	TimeOfDay     TimeOfDay   `json:"time_of_day" db:"time_of_day"`

	// Optional explicit time window for sources that publish exact hours.
	TimeFrom *string `json:"time_from,omitempty" db:"time_from"`
	TimeTo   *string `json:"time_to,omitempty" db:"time_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PriceKey is the uniqueness key for lookup and upsert under one owner.
type PriceKey struct {
	PaymentType   PaymentType
	AxelType      AxelType
	DayOfWeekFrom DayOfWeek
	DayOfWeekTo   DayOfWeek
	TimeOfDay     TimeOfDay
}

// Key extracts the uniqueness key of a price record.
func (p *TollPrice) Key() PriceKey {
	return PriceKey{
		PaymentType:   p.PaymentType,
		AxelType:      p.AxelType,
		DayOfWeekFrom: p.DayOfWeekFrom,
		DayOfWeekTo:   p.DayOfWeekTo,
		TimeOfDay:     p.TimeOfDay,
	}
}
