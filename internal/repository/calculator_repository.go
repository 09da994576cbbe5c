package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/tolls-backend-go/internal/models"
)

// CalculatorRepository handles database operations for state calculators and
// their corridor price records
type CalculatorRepository struct {
	db *sql.DB
}

// NewCalculatorRepository creates a new calculator repository
func NewCalculatorRepository(db *sql.DB) *CalculatorRepository {
	return &CalculatorRepository{db: db}
}

// GetCalculatorByID retrieves a single calculator by ID
func (r *CalculatorRepository) GetCalculatorByID(id int64) (*models.StateCalculator, error) {
	var c models.StateCalculator
	err := r.db.QueryRow(`SELECT id, name, code, created_at, updated_at FROM state_calculators WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Code, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculator: %w", err)
	}
	return &c, nil
}

// GetOrCreateByCode returns the calculator with the given jurisdiction code,
// creating it if absent. Concurrent imports for the same jurisdiction race on
// the insert; the unique constraint makes the loser's insert a no-op and the
// re-read below returns the winner's row.
func (r *CalculatorRepository) GetOrCreateByCode(code, name string) (*models.StateCalculator, error) {
	_, err := r.db.Exec(`INSERT INTO state_calculators (code, name) VALUES (?, ?)
		ON CONFLICT(code) DO NOTHING`, code, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert calculator: %w", err)
	}

	var c models.StateCalculator
	err = r.db.QueryRow(`SELECT id, name, code, created_at, updated_at FROM state_calculators WHERE code = ?`, code).
		Scan(&c.ID, &c.Name, &c.Code, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read calculator after upsert: %w", err)
	}
	return &c, nil
}

const calculatePriceColumns = `id, state_calculator_id, from_toll_id, to_toll_id, cash, ipass, online, created_at, updated_at`

// CalculatePricesForCalculator retrieves every corridor price record under a
// calculator, with fine-grained prices attached.
func (r *CalculatorRepository) CalculatePricesForCalculator(ctx context.Context, calculatorID int64) ([]models.CalculatePrice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+calculatePriceColumns+` FROM calculate_prices
		WHERE state_calculator_id = ? ORDER BY id`, calculatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculate prices: %w", err)
	}
	defer rows.Close()

	var prices []models.CalculatePrice
	byID := make(map[int64]int)
	for rows.Next() {
		var cp models.CalculatePrice
		err := rows.Scan(&cp.ID, &cp.StateCalculatorID, &cp.FromTollID, &cp.ToTollID,
			&cp.Cash, &cp.IPass, &cp.Online, &cp.CreatedAt, &cp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calculate price: %w", err)
		}
		byID[cp.ID] = len(prices)
		prices = append(prices, cp)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close calculate price rows: %w", err)
	}

	if len(prices) == 0 {
		return prices, nil
	}

	priceRows, err := r.db.QueryContext(ctx, `SELECT tp.id, tp.toll_id, tp.calculate_price_id, tp.amount,
		tp.payment_type, tp.axel_type, tp.day_of_week_from, tp.day_of_week_to, tp.time_of_day,
		tp.time_from, tp.time_to, tp.created_at, tp.updated_at
		FROM toll_prices tp
		JOIN calculate_prices cp ON cp.id = tp.calculate_price_id
		WHERE cp.state_calculator_id = ?
		ORDER BY tp.id`, calculatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query corridor prices: %w", err)
	}
	defer priceRows.Close()

	for priceRows.Next() {
		var p models.TollPrice
		err := priceRows.Scan(&p.ID, &p.TollID, &p.CalculatePriceID, &p.Amount, &p.PaymentType, &p.AxelType,
			&p.DayOfWeekFrom, &p.DayOfWeekTo, &p.TimeOfDay, &p.TimeFrom, &p.TimeTo, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corridor price: %w", err)
		}
		if p.CalculatePriceID != nil {
			if idx, ok := byID[*p.CalculatePriceID]; ok {
				prices[idx].Prices = append(prices[idx].Prices, p)
			}
		}
	}

	return prices, nil
}

// GetCalculatePriceByID retrieves a corridor record by primary key
func (r *CalculatorRepository) GetCalculatePriceByID(id int64) (*models.CalculatePrice, error) {
	var cp models.CalculatePrice
	err := r.db.QueryRow(`SELECT `+calculatePriceColumns+` FROM calculate_prices WHERE id = ?`, id).
		Scan(&cp.ID, &cp.StateCalculatorID, &cp.FromTollID, &cp.ToTollID,
			&cp.Cash, &cp.IPass, &cp.Online, &cp.CreatedAt, &cp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculate price: %w", err)
	}
	return &cp, nil
}

// GetCalculatePrice retrieves the corridor record for one directed pair
func (r *CalculatorRepository) GetCalculatePrice(calculatorID, fromTollID, toTollID int64) (*models.CalculatePrice, error) {
	var cp models.CalculatePrice
	err := r.db.QueryRow(`SELECT `+calculatePriceColumns+` FROM calculate_prices
		WHERE state_calculator_id = ? AND from_toll_id = ? AND to_toll_id = ?`,
		calculatorID, fromTollID, toTollID).
		Scan(&cp.ID, &cp.StateCalculatorID, &cp.FromTollID, &cp.ToTollID,
			&cp.Cash, &cp.IPass, &cp.Online, &cp.CreatedAt, &cp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculate price: %w", err)
	}
	return &cp, nil
}

// GetOrCreateCalculatePriceTx returns the corridor record for a directed pair,
// creating it if absent, inside an existing transaction. From and to must be
// distinct facilities.
func (r *CalculatorRepository) GetOrCreateCalculatePriceTx(tx *sql.Tx, calculatorID, fromTollID, toTollID int64) (*models.CalculatePrice, error) {
	if fromTollID == toTollID {
		return nil, fmt.Errorf("corridor pair endpoints must differ (toll %d)", fromTollID)
	}

	_, err := tx.Exec(`INSERT INTO calculate_prices (state_calculator_id, from_toll_id, to_toll_id)
		VALUES (?, ?, ?)
		ON CONFLICT(state_calculator_id, from_toll_id, to_toll_id) DO NOTHING`,
		calculatorID, fromTollID, toTollID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert calculate price: %w", err)
	}

	var cp models.CalculatePrice
	err = tx.QueryRow(`SELECT `+calculatePriceColumns+` FROM calculate_prices
		WHERE state_calculator_id = ? AND from_toll_id = ? AND to_toll_id = ?`,
		calculatorID, fromTollID, toTollID).
		Scan(&cp.ID, &cp.StateCalculatorID, &cp.FromTollID, &cp.ToTollID,
			&cp.Cash, &cp.IPass, &cp.Online, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read calculate price after upsert: %w", err)
	}
	return &cp, nil
}
