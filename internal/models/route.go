package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// District represents an administrative district served by the network
type District struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Region    *string   `json:"region,omitempty" db:"region"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Route represents a fixed origin-destination pairing with a flat fare
type Route struct {
	ID              int             `json:"id" db:"id"`
	OriginID        int             `json:"origin_id" db:"origin_id"`
	DestinationID   int             `json:"destination_id" db:"destination_id"`
	OriginName      string          `json:"origin_name" db:"origin_name"`
	DestinationName string          `json:"destination_name" db:"destination_name"`
	Fare            decimal.Decimal `json:"fare" db:"fare"`
	DistanceKM      *float64        `json:"distance_km,omitempty" db:"distance_km"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// BusStatus represents the operational status of a bus
type BusStatus string

const (
	BusStatusActive      BusStatus = "active"
	BusStatusMaintenance BusStatus = "maintenance"
	BusStatusRetired     BusStatus = "retired"
)

// Bus represents a vehicle with a fixed seat capacity
type Bus struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Status      BusStatus `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
