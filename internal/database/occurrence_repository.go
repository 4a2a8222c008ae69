package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// occurrenceColumns hydrates an occurrence with its route, bus and seat data.
// Remaining seats counts confirmed bookings only; pending holds are an
// internal reservation detail and not shown to the public.
const occurrenceColumns = `
	o.id, o.recurrence_id, o.date, o.departure_time, o.arrival_time, o.status,
	(o.date + o.departure_time) AS departure_at,
	b.capacity, r.fare, r.id AS route_id,
	r.origin_name, r.destination_name, b.plate_number AS bus_plate,
	b.capacity - (
		SELECT COUNT(*) FROM bookings bk
		WHERE bk.schedule_occurrence_id = o.id AND bk.status = 'confirmed'
	) AS remaining_seats,
	o.created_at, o.updated_at
`

const occurrenceJoins = `
	FROM schedule_occurrences o
	JOIN schedule_recurrences sr ON sr.id = o.recurrence_id
	JOIN buses b ON b.id = sr.bus_id
	JOIN (
		SELECT rt.id, rt.fare, rt.origin_id, rt.destination_id,
		       od.name AS origin_name, dd.name AS destination_name
		FROM routes rt
		JOIN districts od ON od.id = rt.origin_id
		JOIN districts dd ON dd.id = rt.destination_id
	) r ON r.id = sr.route_id
`

// OccurrenceRepository handles database operations for schedule occurrences
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository creates a new OccurrenceRepository
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// GetByID retrieves a fully hydrated occurrence by ID
func (r *OccurrenceRepository) GetByID(id uuid.UUID) (*models.ScheduleOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + occurrenceJoins + ` WHERE o.id = $1`

	var occ models.ScheduleOccurrence
	if err := r.db.Get(&occ, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOccurrenceNotFound
		}
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return &occ, nil
}

// OccurrenceFilter narrows the bookable-occurrence listing
type OccurrenceFilter struct {
	RouteID       *int
	OriginID      *int
	DestinationID *int
	Date          *time.Time // calendar date of departure
}

// ListBookable lists scheduled occurrences with a future departure, soonest
// first, optionally filtered by route, endpoints or calendar date.
func (r *OccurrenceRepository) ListBookable(filter OccurrenceFilter) ([]models.ScheduleOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + occurrenceJoins + `
		WHERE o.status = 'scheduled'
		  AND (o.date + o.departure_time) > NOW()
	`
	args := []interface{}{}
	idx := 1

	if filter.RouteID != nil {
		query += fmt.Sprintf(" AND sr.route_id = $%d", idx)
		args = append(args, *filter.RouteID)
		idx++
	}
	if filter.OriginID != nil {
		query += fmt.Sprintf(" AND r.origin_id = $%d", idx)
		args = append(args, *filter.OriginID)
		idx++
	}
	if filter.DestinationID != nil {
		query += fmt.Sprintf(" AND r.destination_id = $%d", idx)
		args = append(args, *filter.DestinationID)
		idx++
	}
	if filter.Date != nil {
		query += fmt.Sprintf(" AND o.date = $%d", idx)
		args = append(args, filter.Date.Format("2006-01-02"))
		idx++
	}
	query += " ORDER BY o.date, o.departure_time"

	occurrences := []models.ScheduleOccurrence{}
	if err := r.db.Select(&occurrences, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	return occurrences, nil
}

// UpdateStatus updates the occurrence status
func (r *OccurrenceRepository) UpdateStatus(id uuid.UUID, status models.OccurrenceStatus) error {
	query := `UPDATE schedule_occurrences SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update occurrence status: %w", err)
	}
	return requireRowAffected(result, models.ErrOccurrenceNotFound)
}

// SweepDeparted marks scheduled occurrences whose departure instant has
// passed as departed. Returns the number of occurrences swept.
func (r *OccurrenceRepository) SweepDeparted() (int64, error) {
	query := `
		UPDATE schedule_occurrences
		SET status = 'departed', updated_at = NOW()
		WHERE status = 'scheduled'
		  AND (date + departure_time) <= NOW()
	`
	result, err := r.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep departed occurrences: %w", err)
	}
	return result.RowsAffected()
}

// ListActiveRecurrences returns recurrences the generator should expand
func (r *OccurrenceRepository) ListActiveRecurrences() ([]models.ScheduleRecurrence, error) {
	query := `
		SELECT id, route_id, bus_id, recurrence_type,
		       departure_time, arrival_time, is_active, created_at, updated_at
		FROM schedule_recurrences
		WHERE is_active = true
		ORDER BY created_at
	`
	recurrences := []models.ScheduleRecurrence{}
	if err := r.db.Select(&recurrences, query); err != nil {
		return nil, fmt.Errorf("failed to list recurrences: %w", err)
	}
	return recurrences, nil
}

// InsertOccurrence creates one dated occurrence for a recurrence. Re-running
// the generator over the same window is a no-op thanks to the unique
// (recurrence_id, date) index. Returns true when a row was actually created.
func (r *OccurrenceRepository) InsertOccurrence(rec *models.ScheduleRecurrence, date time.Time) (bool, error) {
	query := `
		INSERT INTO schedule_occurrences (
			id, recurrence_id, date, departure_time, arrival_time, status
		) VALUES ($1, $2, $3, $4, $5, 'scheduled')
		ON CONFLICT (recurrence_id, date) DO NOTHING
	`
	result, err := r.db.Exec(query, uuid.New(), rec.ID, date.Format("2006-01-02"), rec.DepartureTime, rec.ArrivalTime)
	if err != nil {
		return false, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
