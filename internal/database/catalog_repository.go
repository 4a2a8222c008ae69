package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// CatalogRepository handles read access to districts and routes
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDistricts returns all districts ordered by name
func (r *CatalogRepository) ListDistricts() ([]models.District, error) {
	query := `SELECT id, name, region, created_at FROM districts ORDER BY name`
	districts := []models.District{}
	if err := r.db.Select(&districts, query); err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	return districts, nil
}

const routeColumns = `
	rt.id, rt.origin_id, rt.destination_id,
	od.name AS origin_name, dd.name AS destination_name,
	rt.fare, rt.distance_km, rt.is_active, rt.created_at
`

const routeJoins = `
	FROM routes rt
	JOIN districts od ON od.id = rt.origin_id
	JOIN districts dd ON dd.id = rt.destination_id
`

// ListRoutes returns active routes with district names resolved, optionally
// restricted to routes starting at the given origin district.
func (r *CatalogRepository) ListRoutes(originID *int) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + ` WHERE rt.is_active = true`
	args := []interface{}{}
	if originID != nil {
		query += ` AND rt.origin_id = $1`
		args = append(args, *originID)
	}
	query += ` ORDER BY od.name, dd.name`

	routes := []models.Route{}
	if err := r.db.Select(&routes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// GetRouteByID retrieves a single route with district names resolved
func (r *CatalogRepository) GetRouteByID(id int) (*models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + ` WHERE rt.id = $1`
	var route models.Route
	if err := r.db.Get(&route, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("route not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}
