package repository

import (
	"database/sql"
	"fmt"

	"github.com/jengzang/tolls-backend-go/internal/models"
)

// PriceRepository handles database operations for fine-grained toll prices
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// ownerCondition returns the WHERE fragment and argument selecting one owner.
func ownerCondition(owner models.PriceOwner) (string, interface{}, error) {
	if err := owner.Validate(); err != nil {
		return "", nil, err
	}
	if owner.TollID != nil {
		return "toll_id = ?", *owner.TollID, nil
	}
	return "calculate_price_id = ?", *owner.CalculatePriceID, nil
}

// Upsert writes a price fact under the given owner: an existing record with
// the same key tuple gets its amount overwritten in place, otherwise a new
// record is created. Idempotent.
func (r *PriceRepository) Upsert(owner models.PriceOwner, fact models.PriceFact) error {
	return r.upsert(r.db, owner, fact)
}

// UpsertTx is Upsert inside an existing transaction.
func (r *PriceRepository) UpsertTx(tx *sql.Tx, owner models.PriceOwner, fact models.PriceFact) error {
	return r.upsert(tx, owner, fact)
}

func (r *PriceRepository) upsert(q queryRower, owner models.PriceOwner, fact models.PriceFact) error {
	cond, ownerArg, err := ownerCondition(owner)
	if err != nil {
		return err
	}

	var id int64
	err = q.QueryRow(`SELECT id FROM toll_prices WHERE `+cond+`
		AND payment_type = ? AND axel_type = ? AND day_of_week_from = ? AND day_of_week_to = ? AND time_of_day = ?`,
		ownerArg, fact.PaymentType, fact.AxelType, fact.DayOfWeekFrom, fact.DayOfWeekTo, fact.TimeOfDay).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		_, err = q.Exec(`INSERT INTO toll_prices (toll_id, calculate_price_id, amount, payment_type, axel_type,
			day_of_week_from, day_of_week_to, time_of_day, time_from, time_to)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner.TollID, owner.CalculatePriceID, fact.Amount, fact.PaymentType, fact.AxelType,
			fact.DayOfWeekFrom, fact.DayOfWeekTo, fact.TimeOfDay, fact.TimeFrom, fact.TimeTo)
		if err != nil {
			return fmt.Errorf("failed to insert toll price: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up toll price: %w", err)
	}

	_, err = q.Exec(`UPDATE toll_prices SET amount = ?, time_from = ?, time_to = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, fact.Amount, fact.TimeFrom, fact.TimeTo, id)
	if err != nil {
		return fmt.Errorf("failed to update toll price: %w", err)
	}
	return nil
}

// GetPrice retrieves the price record matching the full key tuple under an
// owner, or nil when absent.
func (r *PriceRepository) GetPrice(owner models.PriceOwner, key models.PriceKey) (*models.TollPrice, error) {
	cond, ownerArg, err := ownerCondition(owner)
	if err != nil {
		return nil, err
	}

	var p models.TollPrice
	err = r.db.QueryRow(`SELECT id, toll_id, calculate_price_id, amount, payment_type, axel_type,
		day_of_week_from, day_of_week_to, time_of_day, time_from, time_to, created_at, updated_at
		FROM toll_prices WHERE `+cond+`
		AND payment_type = ? AND axel_type = ? AND day_of_week_from = ? AND day_of_week_to = ? AND time_of_day = ?`,
		ownerArg, key.PaymentType, key.AxelType, key.DayOfWeekFrom, key.DayOfWeekTo, key.TimeOfDay).
		Scan(&p.ID, &p.TollID, &p.CalculatePriceID, &p.Amount, &p.PaymentType, &p.AxelType,
			&p.DayOfWeekFrom, &p.DayOfWeekTo, &p.TimeOfDay, &p.TimeFrom, &p.TimeTo, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get toll price: %w", err)
	}
	return &p, nil
}

// PricesForOwner retrieves every price record under an owner.
func (r *PriceRepository) PricesForOwner(owner models.PriceOwner) ([]models.TollPrice, error) {
	cond, ownerArg, err := ownerCondition(owner)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`SELECT id, toll_id, calculate_price_id, amount, payment_type, axel_type,
		day_of_week_from, day_of_week_to, time_of_day, time_from, time_to, created_at, updated_at
		FROM toll_prices WHERE `+cond+` ORDER BY id`, ownerArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query toll prices: %w", err)
	}
	defer rows.Close()

	var prices []models.TollPrice
	for rows.Next() {
		var p models.TollPrice
		err := rows.Scan(&p.ID, &p.TollID, &p.CalculatePriceID, &p.Amount, &p.PaymentType, &p.AxelType,
			&p.DayOfWeekFrom, &p.DayOfWeekTo, &p.TimeOfDay, &p.TimeFrom, &p.TimeTo, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan toll price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, nil
}
