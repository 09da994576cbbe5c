package service

import "github.com/jengzang/tolls-backend-go/internal/models"

// Two-tier price lookup: the fine-grained TollPrice matching the key wins;
// otherwise the owner's legacy scalar fields answer, keyed only by payment
// type family. Older records predate the TollPrice model and must stay
// queryable without migration.

// CashKey is the lookup key for an unrestricted cash rate.
func CashKey() models.PriceKey {
	return models.PriceKey{PaymentType: models.PaymentCash}
}

// TransponderKey is the lookup key for an unrestricted transponder rate.
func TransponderKey() models.PriceKey {
	return models.PriceKey{PaymentType: models.PaymentTransponder}
}

func findPrice(prices []models.TollPrice, key models.PriceKey) *float64 {
	for i := range prices {
		if prices[i].Key() == key {
			amount := prices[i].Amount
			return &amount
		}
	}
	return nil
}

// AmountForCalculatePrice resolves an amount for a corridor pair record.
func AmountForCalculatePrice(cp *models.CalculatePrice, key models.PriceKey) *float64 {
	if cp == nil {
		return nil
	}
	if amount := findPrice(cp.Prices, key); amount != nil {
		return amount
	}
	if key.PaymentType.IsTransponderClass() {
		return cp.IPass
	}
	if key.PaymentType == models.PaymentOnline && cp.Online != nil {
		return cp.Online
	}
	return cp.Cash
}

// AmountForToll resolves an amount for a flat-rate facility.
func AmountForToll(t *models.Toll, key models.PriceKey) *float64 {
	if t == nil {
		return nil
	}
	if amount := findPrice(t.Prices, key); amount != nil {
		return amount
	}
	if key.PaymentType.IsTransponderClass() {
		return t.IPass
	}
	return t.Cash
}
