package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
)

// TollRepository handles database operations for toll facilities
type TollRepository struct {
	db *sql.DB
}

// NewTollRepository creates a new toll repository
func NewTollRepository(db *sql.DB) *TollRepository {
	return &TollRepository{db: db}
}

const tollColumns = `id, name, key, number, lat, lon, road_id, state_calculator_id,
	payment_methods, cash, ipass, created_at, updated_at`

func scanToll(scanner interface{ Scan(...interface{}) error }) (models.Toll, error) {
	var t models.Toll
	var methods string
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Key, &t.Number, &t.Lat, &t.Lon, &t.RoadID, &t.StateCalculatorID,
		&methods, &t.Cash, &t.IPass, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	if methods != "" && methods != "[]" {
		if err := json.Unmarshal([]byte(methods), &t.PaymentMethods); err != nil {
			return t, fmt.Errorf("failed to unmarshal payment methods: %w", err)
		}
	}
	return t, nil
}

// GetTolls retrieves tolls with filtering and pagination
func (r *TollRepository) GetTolls(filter models.TollFilter) ([]models.Toll, int64, error) {
	query := `SELECT ` + tollColumns + ` FROM tolls`

	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		conditions = append(conditions, "(name LIKE ? OR key LIKE ? OR number LIKE ?)")
		pattern := "%" + filter.Name + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.CalculatorID > 0 {
		conditions = append(conditions, "state_calculator_id = ?")
		args = append(args, filter.CalculatorID)
	}
	if filter.RoadID > 0 {
		conditions = append(conditions, "road_id = ?")
		args = append(args, filter.RoadID)
	}
	if filter.HasBound() {
		conditions = append(conditions, "lat >= ? AND lat <= ? AND lon >= ? AND lon <= ?")
		args = append(args, filter.MinLat, filter.MaxLat, filter.MinLon, filter.MaxLon)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM tolls"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err := r.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tolls: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	offset := (filter.Page - 1) * filter.PageSize
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tolls: %w", err)
	}
	defer rows.Close()

	var tolls []models.Toll
	for rows.Next() {
		t, err := scanToll(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan toll: %w", err)
		}
		tolls = append(tolls, t)
	}

	return tolls, total, nil
}

// GetTollByID retrieves a single toll by ID, with its direct prices attached
func (r *TollRepository) GetTollByID(id int64) (*models.Toll, error) {
	query := `SELECT ` + tollColumns + ` FROM tolls WHERE id = ?`

	t, err := scanToll(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get toll: %w", err)
	}

	prices, err := r.getDirectPrices(id)
	if err != nil {
		return nil, err
	}
	t.Prices = prices

	return &t, nil
}

// TollsWithinBound retrieves all tolls whose point lies inside the bound.
// Tolls without a point never match.
func (r *TollRepository) TollsWithinBound(bound orb.Bound) ([]models.Toll, error) {
	query := `SELECT ` + tollColumns + ` FROM tolls
		WHERE lat IS NOT NULL AND lon IS NOT NULL
		AND lat >= ? AND lat <= ? AND lon >= ? AND lon <= ?
		ORDER BY id`

	rows, err := r.db.Query(query, bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon())
	if err != nil {
		return nil, fmt.Errorf("failed to query tolls in bound: %w", err)
	}
	defer rows.Close()

	var tolls []models.Toll
	for rows.Next() {
		t, err := scanToll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan toll: %w", err)
		}
		tolls = append(tolls, t)
	}

	return tolls, nil
}

// CreateToll inserts a new toll and returns its ID
func (r *TollRepository) CreateToll(t *models.Toll) error {
	methods, err := json.Marshal(t.PaymentMethods)
	if err != nil {
		return fmt.Errorf("failed to marshal payment methods: %w", err)
	}
	if t.PaymentMethods == nil {
		methods = []byte("[]")
	}

	res, err := r.db.Exec(`INSERT INTO tolls (name, key, number, lat, lon, road_id, state_calculator_id, payment_methods, cash, ipass)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Key, t.Number, t.Lat, t.Lon, t.RoadID, t.StateCalculatorID, string(methods), t.Cash, t.IPass)
	if err != nil {
		return fmt.Errorf("failed to insert toll: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get toll id: %w", err)
	}
	return nil
}

// UpdateToll back-fills mutable fields (Number/Key/StateCalculatorId and rates)
func (r *TollRepository) UpdateToll(t *models.Toll) error {
	_, err := r.db.Exec(`UPDATE tolls SET name = ?, key = ?, number = ?, lat = ?, lon = ?,
		road_id = ?, state_calculator_id = ?, cash = ?, ipass = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Name, t.Key, t.Number, t.Lat, t.Lon, t.RoadID, t.StateCalculatorID, t.Cash, t.IPass, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update toll: %w", err)
	}
	return nil
}

func (r *TollRepository) getDirectPrices(tollID int64) ([]models.TollPrice, error) {
	rows, err := r.db.Query(`SELECT id, toll_id, calculate_price_id, amount, payment_type, axel_type,
		day_of_week_from, day_of_week_to, time_of_day, time_from, time_to, created_at, updated_at
		FROM toll_prices WHERE toll_id = ? ORDER BY id`, tollID)
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
