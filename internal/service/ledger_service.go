package service

import (
	"database/sql"
	"fmt"

	"github.com/jengzang/tolls-backend-go/internal/database"
	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/repository"
)

// LedgerService owns the price write path: idempotent upserts keyed by the
// full price tuple, and batch application of parsed price facts.
type LedgerService struct {
	db          *sql.DB
	prices      *repository.PriceRepository
	calculators *repository.CalculatorRepository
	tolls       *repository.TollRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *sql.DB, prices *repository.PriceRepository, calculators *repository.CalculatorRepository, tolls *repository.TollRepository) *LedgerService {
	return &LedgerService{db: db, prices: prices, calculators: calculators, tolls: tolls}
}

// UpsertPrice writes one price fact under an owner. Safe to call repeatedly
// with the same key; an existing record's amount is overwritten in place.
func (s *LedgerService) UpsertPrice(owner models.PriceOwner, fact models.PriceFact) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	return s.prices.Upsert(owner, fact)
}

// BatchFailure describes one group the batch could not apply.
type BatchFailure struct {
	Owner  string `json:"owner"`
	Reason string `json:"reason"`
}

// BatchResult reports what a batch upsert did. Failures never abort the rest
// of the batch.
type BatchResult struct {
	Applied  int            `json:"applied"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// BatchUpsert applies corridor and direct price-fact groups inside a single
// transaction, so a partial failure leaves no corridor record without its
// price children. Each corridor group's (calculator, from, to) record is
// fetched or created once, not once per fact. When one batch carries two
// facts with the same key and different amounts, the later one wins.
func (s *LedgerService) BatchUpsert(corridor []models.CorridorFactGroup, direct []models.DirectFactGroup) (BatchResult, error) {
	var result BatchResult

	err := database.WithTx(s.db, func(tx *sql.Tx) error {
		for _, group := range corridor {
			cp, err := s.calculators.GetOrCreateCalculatePriceTx(tx, group.StateCalculatorID, group.FromTollID, group.ToTollID)
			if err != nil {
				result.Failures = append(result.Failures, BatchFailure{
					Owner:  fmt.Sprintf("corridor %d:%d->%d", group.StateCalculatorID, group.FromTollID, group.ToTollID),
					Reason: err.Error(),
				})
				continue
			}
			owner := models.CorridorOwner(cp.ID)
			for _, fact := range group.Facts {
				if err := s.prices.UpsertTx(tx, owner, fact); err != nil {
					result.Failures = append(result.Failures, BatchFailure{
						Owner:  fmt.Sprintf("corridor %d:%d->%d", group.StateCalculatorID, group.FromTollID, group.ToTollID),
						Reason: err.Error(),
					})
					continue
				}
				result.Applied++
			}
		}

		for _, group := range direct {
			owner := models.DirectOwner(group.TollID)
			for _, fact := range group.Facts {
				if err := s.prices.UpsertTx(tx, owner, fact); err != nil {
					result.Failures = append(result.Failures, BatchFailure{
						Owner:  fmt.Sprintf("toll %d", group.TollID),
						Reason: err.Error(),
					})
					continue
				}
				result.Applied++
			}
		}

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to apply price batch: %w", err)
	}

	return result, nil
}

// AmountFor answers the price lookup for an owner and key, falling back to
// the owner's legacy scalar rates when no fine-grained record matches.
func (s *LedgerService) AmountFor(owner models.PriceOwner, key models.PriceKey) (*float64, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if owner.TollID != nil {
		toll, err := s.tolls.GetTollByID(*owner.TollID)
		if err != nil {
			return nil, err
		}
		if toll == nil {
			return nil, fmt.Errorf("toll %d not found", *owner.TollID)
		}
		return AmountForToll(toll, key), nil
	}

	cp, err := s.calculators.GetCalculatePriceByID(*owner.CalculatePriceID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, fmt.Errorf("calculate price %d not found", *owner.CalculatePriceID)
	}
	cp.Prices, err = s.prices.PricesForOwner(owner)
	if err != nil {
		return nil, err
	}
	return AmountForCalculatePrice(cp, key), nil
}
