package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// ErrOperatorNotFound is returned when the operator does not exist or is inactive
var ErrOperatorNotFound = errors.New("operator not found")

// OperatorRepository handles database operations for counter operators
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository creates a new OperatorRepository
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// GetByUsername retrieves an active operator by username
func (r *OperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	query := `
		SELECT id, username, full_name, password_hash, is_active, created_at
		FROM operators
		WHERE username = $1 AND is_active = true
	`
	var op models.Operator
	if err := r.db.Get(&op, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

// GetByID retrieves an active operator by id
func (r *OperatorRepository) GetByID(id uuid.UUID) (*models.Operator, error) {
	query := `
		SELECT id, username, full_name, password_hash, is_active, created_at
		FROM operators
		WHERE id = $1 AND is_active = true
	`
	var op models.Operator
	if err := r.db.Get(&op, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

// IsAssignedToRoute reports whether the operator has an active assignment on the route
func (r *OperatorRepository) IsAssignedToRoute(operatorID uuid.UUID, routeID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM operator_assignments
			WHERE operator_id = $1 AND route_id = $2 AND is_active = true
		)
	`
	var assigned bool
	if err := r.db.Get(&assigned, query, operatorID, routeID); err != nil {
		return false, fmt.Errorf("failed to check operator assignment: %w", err)
	}
	return assigned, nil
}
