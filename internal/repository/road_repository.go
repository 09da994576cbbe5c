package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
)

// RoadRepository handles database operations for roads
type RoadRepository struct {
	db *sql.DB
}

// NewRoadRepository creates a new road repository
func NewRoadRepository(db *sql.DB) *RoadRepository {
	return &RoadRepository{db: db}
}

const roadColumns = `id, name, route_ref, highway, is_toll, geometry, created_at, updated_at`

func scanRoad(scanner interface{ Scan(...interface{}) error }) (models.Road, error) {
	var r models.Road
	var geometry sql.NullString
	err := scanner.Scan(&r.ID, &r.Name, &r.RouteRef, &r.Highway, &r.IsToll, &geometry, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if geometry.Valid {
		r.Geometry, err = models.ParseGeometryJSON(geometry.String)
		if err != nil {
			return r, err
		}
	}
	return r, nil
}

// GetRoads retrieves roads with filtering and pagination
func (r *RoadRepository) GetRoads(filter models.RoadFilter) ([]models.Road, int64, error) {
	query := `SELECT ` + roadColumns + ` FROM roads`

	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.RouteRef != "" {
		conditions = append(conditions, "route_ref = ?")
		args = append(args, filter.RouteRef)
	}
	if filter.Highway != "" {
		conditions = append(conditions, "highway = ?")
		args = append(args, filter.Highway)
	}
	if filter.TollOnly {
		conditions = append(conditions, "is_toll = 1")
	}
	if filter.MinLat != 0 || filter.MaxLat != 0 || filter.MinLon != 0 || filter.MaxLon != 0 {
		conditions = append(conditions, "max_lat >= ? AND min_lat <= ? AND max_lon >= ? AND min_lon <= ?")
		args = append(args, filter.MinLat, filter.MaxLat, filter.MinLon, filter.MaxLon)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM roads"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err := r.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count roads: %w", err)
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
		return nil, 0, fmt.Errorf("failed to query roads: %w", err)
	}
	defer rows.Close()

	var roads []models.Road
	for rows.Next() {
		road, err := scanRoad(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan road: %w", err)
		}
		roads = append(roads, road)
	}

	return roads, total, nil
}

// GetRoadByID retrieves a single road by ID
func (r *RoadRepository) GetRoadByID(id int64) (*models.Road, error) {
	road, err := scanRoad(r.db.QueryRow(`SELECT `+roadColumns+` FROM roads WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get road: %w", err)
	}
	return &road, nil
}

// GetAllRoads retrieves every stored road, ordered by ID
func (r *RoadRepository) GetAllRoads() ([]models.Road, error) {
	rows, err := r.db.Query(`SELECT ` + roadColumns + ` FROM roads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roads: %w", err)
	}
	defer rows.Close()

	var roads []models.Road
	for rows.Next() {
		road, err := scanRoad(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan road: %w", err)
		}
		roads = append(roads, road)
	}
	return roads, nil
}

// RoadsIntersectingBound retrieves roads whose stored bounding box overlaps
// the given bound. A coarse prefilter; callers narrow with precise geometry.
func (r *RoadRepository) RoadsIntersectingBound(bound orb.Bound) ([]models.Road, error) {
	query := `SELECT ` + roadColumns + ` FROM roads
		WHERE geometry IS NOT NULL
		AND max_lat >= ? AND min_lat <= ? AND max_lon >= ? AND min_lon <= ?
		ORDER BY id`

	rows, err := r.db.Query(query, bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon())
	if err != nil {
		return nil, fmt.Errorf("failed to query roads in bound: %w", err)
	}
	defer rows.Close()

	var roads []models.Road
	for rows.Next() {
		road, err := scanRoad(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan road: %w", err)
		}
		roads = append(roads, road)
	}
	return roads, nil
}

// CreateRoad inserts a new road and returns its ID
func (r *RoadRepository) CreateRoad(road *models.Road) error {
	return r.createRoad(r.db.Exec, road)
}

// CreateRoadTx inserts a new road inside an existing transaction
func (r *RoadRepository) CreateRoadTx(tx *sql.Tx, road *models.Road) error {
	return r.createRoad(tx.Exec, road)
}

type execFunc func(query string, args ...interface{}) (sql.Result, error)

func (r *RoadRepository) createRoad(exec execFunc, road *models.Road) error {
	geometry, err := road.GeometryJSON()
	if err != nil {
		return err
	}

	var geomArg interface{}
	var minLat, maxLat, minLon, maxLon interface{}
	if geometry != "" {
		geomArg = geometry
		bound := road.Geometry.Bound()
		minLat, maxLat = bound.Min.Lat(), bound.Max.Lat()
		minLon, maxLon = bound.Min.Lon(), bound.Max.Lon()
	}

	res, err := exec(`INSERT INTO roads (name, route_ref, highway, is_toll, geometry, min_lat, max_lat, min_lon, max_lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		road.Name, road.RouteRef, road.Highway, road.IsToll, geomArg, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return fmt.Errorf("failed to insert road: %w", err)
	}

	road.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get road id: %w", err)
	}
	return nil
}

// DeleteRoadsTx removes roads by ID inside an existing transaction
func (r *RoadRepository) DeleteRoadsTx(tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := tx.Exec("DELETE FROM roads WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete roads: %w", err)
	}
	return nil
}
