package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/tolls-backend-go/internal/models"
)

// CorridorPriceStore loads the corridor price records reachable from a
// calculator.
type CorridorPriceStore interface {
	CalculatePricesForCalculator(ctx context.Context, calculatorID int64) ([]models.CalculatePrice, error)
}

// ResolverService turns an ordered list of toll encounters along a route into
// a minimal, deduplicated, priced itinerary.
type ResolverService struct {
	prices CorridorPriceStore
}

// NewResolverService creates a new resolver service
func NewResolverService(prices CorridorPriceStore) *ResolverService {
	return &ResolverService{prices: prices}
}

// ResolveRoute loads the corridor prices reachable from the encounters'
// calculators and resolves the itinerary. Encounters must be ordered by
// distance from the route origin.
func (s *ResolverService) ResolveRoute(ctx context.Context, encounters []models.TollEncounter) ([]models.PricedEntry, error) {
	calculatorIDs := distinctCalculatorIDs(encounters)

	// Independent reads; the store serializes what it must.
	results := make([][]models.CalculatePrice, len(calculatorIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range calculatorIDs {
		i, id := i, id
		g.Go(func() error {
			cps, err := s.prices.CalculatePricesForCalculator(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load prices for calculator %d: %w", id, err)
			}
			results[i] = cps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var prices []models.CalculatePrice
	for _, cps := range results {
		prices = append(prices, cps...)
	}

	return ResolveRoutePrices(encounters, prices), nil
}

func distinctCalculatorIDs(encounters []models.TollEncounter) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, enc := range encounters {
		if enc.Toll.StateCalculatorID == nil {
			continue
		}
		id := *enc.Toll.StateCalculatorID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

type pairKey struct {
	calculatorID int64
	fromID       int64
	toID         int64
}

// ResolveRoutePrices is the resolution core: a pure function of the ordered
// encounter list and the available corridor prices.
//
// Facilities are deduplicated by name, not identity: the same physical
// facility is frequently stored as several Toll records (duplicate imports,
// per-direction records), and charging each record would double-charge what
// is operationally one toll point. Flat-rate facilities are the exception and
// may legitimately recur along a route (repeated entry/exit of one bridge).
func ResolveRoutePrices(encounters []models.TollEncounter, prices []models.CalculatePrice) []models.PricedEntry {
	pairs := make(map[pairKey]*models.CalculatePrice, len(prices))
	for i := range prices {
		cp := &prices[i]
		pairs[pairKey{cp.StateCalculatorID, cp.FromTollID, cp.ToTollID}] = cp
	}

	used := make(map[string]bool)
	lastDistance := -1.0
	var entries []models.PricedEntry

	for i := range encounters {
		enc := &encounters[i]
		name := normalizeName(enc.Toll.Name)

		// Only the first, forward-most occurrence of a facility counts.
		if name != "" && used[name] {
			continue
		}
		if enc.DistanceMeters < lastDistance {
			continue
		}

		if !enc.Toll.HasCalculator() {
			// Flat per-crossing facility. Not added to the used set so a
			// route that crosses it again pays again.
			entries = append(entries, models.PricedEntry{
				Toll:           enc.Toll,
				Cash:           AmountForToll(&enc.Toll, CashKey()),
				IPass:          AmountForToll(&enc.Toll, TransponderKey()),
				DistanceMeters: enc.DistanceMeters,
			})
			lastDistance = enc.DistanceMeters
			continue
		}

		calculatorID := *enc.Toll.StateCalculatorID

		// Corridor systems charge for the whole span between entry and exit,
		// so prefer the farthest exit with a known price: one priced hop
		// instead of one per intermediate gantry.
		var priced *models.CalculatePrice
		pricedIdx := -1
		fallbackIdx := -1
		for j := len(encounters) - 1; j > i; j-- {
			cand := &encounters[j]
			if cand.Toll.StateCalculatorID == nil || *cand.Toll.StateCalculatorID != calculatorID {
				continue
			}
			candName := normalizeName(cand.Toll.Name)
			if candName == "" || candName == name || used[candName] {
				continue
			}
			if fallbackIdx < 0 {
				fallbackIdx = j
			}
			if cp, ok := pairs[pairKey{calculatorID, enc.Toll.ID, cand.Toll.ID}]; ok {
				priced = cp
				pricedIdx = j
				break
			}
		}

		switch {
		case pricedIdx >= 0:
			exit := &encounters[pricedIdx]
			entries = append(entries, models.PricedEntry{
				Toll:           exit.Toll,
				Cash:           AmountForCalculatePrice(priced, CashKey()),
				IPass:          AmountForCalculatePrice(priced, TransponderKey()),
				DistanceMeters: exit.DistanceMeters,
			})
			markUsed(used, name, normalizeName(exit.Toll.Name))
			lastDistance = exit.DistanceMeters
		case fallbackIdx >= 0:
			// No priced pair known: the crossing still surfaces as an
			// unpriced placeholder rather than silently disappearing.
			exit := &encounters[fallbackIdx]
			entries = append(entries, models.PricedEntry{
				Toll:           exit.Toll,
				DistanceMeters: exit.DistanceMeters,
			})
			markUsed(used, name, normalizeName(exit.Toll.Name))
			lastDistance = exit.DistanceMeters
		default:
			// Corridor entry with no exit ahead of it on this route.
			entries = append(entries, models.PricedEntry{
				Toll:           enc.Toll,
				DistanceMeters: enc.DistanceMeters,
			})
			markUsed(used, name)
			lastDistance = enc.DistanceMeters
		}
	}

	return entries
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func markUsed(used map[string]bool, names ...string) {
	for _, n := range names {
		if n != "" {
			used[n] = true
		}
	}
}
