package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurrenceType determines how a schedule recurrence expands into dated occurrences
type RecurrenceType string

const (
	RecurrenceDaily  RecurrenceType = "daily"
	RecurrenceWeekly RecurrenceType = "weekly"
)

// ScheduleRecurrence is a recurring route/bus pairing that the generator
// expands into concrete ScheduleOccurrence rows ahead of time.
type ScheduleRecurrence struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	RouteID        int            `json:"route_id" db:"route_id"`
	BusID          uuid.UUID      `json:"bus_id" db:"bus_id"`
	RecurrenceType RecurrenceType `json:"recurrence_type" db:"recurrence_type"`
	DepartureTime  string         `json:"departure_time" db:"departure_time"` // HH:MM:SS
	ArrivalTime    string         `json:"arrival_time" db:"arrival_time"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// StepDays returns the number of days between consecutive occurrence dates.
func (r *ScheduleRecurrence) StepDays() int {
	if r.RecurrenceType == RecurrenceWeekly {
		return 7
	}
	return 1
}

// OccurrenceStatus represents the lifecycle state of a schedule occurrence
type OccurrenceStatus string

const (
	OccurrenceStatusScheduled OccurrenceStatus = "scheduled"
	OccurrenceStatusDeparted  OccurrenceStatus = "departed"
	OccurrenceStatusCancelled OccurrenceStatus = "cancelled"
)

// ScheduleOccurrence is one concrete, dated departure. Capacity and fare are
// denormalized from the recurrence's bus and route when loaded; remaining
// seats is never stored, always derived from the booking set.
type ScheduleOccurrence struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	RecurrenceID   uuid.UUID        `json:"recurrence_id" db:"recurrence_id"`
	Date           time.Time        `json:"date" db:"date"`
	DepartureTime  string           `json:"departure_time" db:"departure_time"`
	ArrivalTime    string           `json:"arrival_time" db:"arrival_time"`
	Status         OccurrenceStatus `json:"status" db:"status"`
	DepartureAt    time.Time        `json:"departure_at" db:"departure_at"`
	Capacity       int              `json:"capacity" db:"capacity"`
	Fare           decimal.Decimal  `json:"fare" db:"fare"`
	RouteID        int              `json:"route_id" db:"route_id"`
	OriginName     string           `json:"origin_name" db:"origin_name"`
	DestName       string           `json:"destination_name" db:"destination_name"`
	BusPlate       string           `json:"bus_plate" db:"bus_plate"`
	RemainingSeats int              `json:"remaining_seats" db:"remaining_seats"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether new bookings may target this occurrence.
func (o *ScheduleOccurrence) IsBookable(now time.Time) bool {
	return o.Status == OccurrenceStatusScheduled && o.DepartureAt.After(now)
}

// MinutesToDeparture returns whole minutes until departure. ok is false when
// the occurrence has departed or its departure instant has passed.
func (o *ScheduleOccurrence) MinutesToDeparture(now time.Time) (int, bool) {
	if o.Status == OccurrenceStatusDeparted {
		return 0, false
	}
	if !o.DepartureAt.After(now) {
		return 0, false
	}
	return int(o.DepartureAt.Sub(now).Minutes()), true
}
