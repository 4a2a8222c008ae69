package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a counter agent who sells cash bookings on assigned routes
type Operator struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// OperatorAssignment links an operator to a route they may sell on
type OperatorAssignment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OperatorID uuid.UUID `json:"operator_id" db:"operator_id"`
	RouteID    int       `json:"route_id" db:"route_id"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OperatorLoginRequest is the inbound payload for operator authentication
type OperatorLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// OperatorLoginResponse carries the issued access token
type OperatorLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Operator  *Operator `json:"operator"`
}
