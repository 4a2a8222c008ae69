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

// BookingRepository handles database operations for the bookings table,
// including the seat-inventory reservation transaction.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ReservePending atomically reserves one seat and persists the booking in
// pending state. It takes an exclusive row lock on the occurrence, re-checks
// status and departure cutoff under the lock, counts seat-consuming bookings
// (confirmed plus unexpired pending holds), and inserts the booking. The lock
// is released at commit, before any payment call is made.
//
// Returns the remaining seats after this reservation, or one of
// models.ErrOccurrenceNotFound, models.ErrOccurrenceNotBookable,
// models.ErrDepartureWindowClosed, models.ErrCapacityExhausted.
func (r *BookingRepository) ReservePending(booking *models.Booking, holdTTL time.Duration) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row struct {
		Status         models.OccurrenceStatus `db:"status"`
		DepartureAhead bool                    `db:"departure_ahead"`
		Capacity       int                     `db:"capacity"`
	}
	// The cutoff is evaluated in SQL so the naive (date + departure_time)
	// timestamp is compared in the database's own clock and timezone, the same
	// way SweepDeparted and ListBookable do.
	lockQuery := `
		SELECT o.status, (o.date + o.departure_time) > NOW() AS departure_ahead, b.capacity
		FROM schedule_occurrences o
		JOIN schedule_recurrences sr ON sr.id = o.recurrence_id
		JOIN buses b ON b.id = sr.bus_id
		WHERE o.id = $1
		FOR UPDATE OF o
	`
	if err := tx.Get(&row, lockQuery, booking.ScheduleOccurrenceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrOccurrenceNotFound
		}
		return 0, fmt.Errorf("failed to lock occurrence: %w", err)
	}

	if row.Status != models.OccurrenceStatusScheduled {
		return 0, models.ErrOccurrenceNotBookable
	}
	if !row.DepartureAhead {
		return 0, models.ErrDepartureWindowClosed
	}

	// Confirmed bookings consume capacity; so do pending bookings still inside
	// their payment hold window. Cancelled bookings simply stop counting.
	holdCutoff := time.Now().Add(-holdTTL)
	var taken int
	countQuery := `
		SELECT COUNT(*)
		FROM bookings
		WHERE schedule_occurrence_id = $1
		  AND (status = 'confirmed' OR (status = 'pending' AND created_at > $2))
	`
	if err := tx.Get(&taken, countQuery, booking.ScheduleOccurrenceID, holdCutoff); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	remaining := row.Capacity - taken
	if remaining <= 0 {
		return 0, models.ErrCapacityExhausted
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = models.BookingStatusPending

	insertQuery := `
		INSERT INTO bookings (
			id, passenger_name, phone_number, email,
			schedule_occurrence_id, payment_method, status, operator_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err = tx.QueryRowx(insertQuery,
		booking.ID, booking.PassengerName, booking.PhoneNumber, booking.Email,
		booking.ScheduleOccurrenceID, booking.PaymentMethod, booking.Status, booking.OperatorID,
	).Scan(&booking.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return remaining - 1, nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	query := `
		SELECT id, passenger_name, phone_number, email,
		       schedule_occurrence_id, payment_method, status, operator_id,
		       created_at, cancelled_at, refund_id
		FROM bookings
		WHERE id = $1
	`
	var booking models.Booking
	if err := r.db.Get(&booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// GetByPhone retrieves all bookings for a phone number, newest first
func (r *BookingRepository) GetByPhone(phone string) ([]models.Booking, error) {
	query := `
		SELECT id, passenger_name, phone_number, email,
		       schedule_occurrence_id, payment_method, status, operator_id,
		       created_at, cancelled_at, refund_id
		FROM bookings
		WHERE phone_number = $1
		ORDER BY created_at DESC
	`
	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, phone); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetByRouteID retrieves non-cancelled bookings on a route, newest first
func (r *BookingRepository) GetByRouteID(routeID int) ([]models.Booking, error) {
	query := `
		SELECT bk.id, bk.passenger_name, bk.phone_number, bk.email,
		       bk.schedule_occurrence_id, bk.payment_method, bk.status, bk.operator_id,
		       bk.created_at, bk.cancelled_at, bk.refund_id
		FROM bookings bk
		JOIN schedule_occurrences o ON o.id = bk.schedule_occurrence_id
		JOIN schedule_recurrences sr ON sr.id = o.recurrence_id
		WHERE sr.route_id = $1
		  AND bk.status != 'cancelled'
		ORDER BY bk.created_at DESC
	`
	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, routeID); err != nil {
		return nil, fmt.Errorf("failed to list route bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus updates the booking status
func (r *BookingRepository) UpdateStatus(id uuid.UUID, status models.BookingStatus) error {
	result, err := r.db.Exec(`UPDATE bookings SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireRowAffected(result, models.ErrBookingNotFound)
}

// MarkCancelled transitions a booking to cancelled with a timestamp. The
// update is conditional on the booking still being cancellable, which makes
// it the serialization point for concurrent cancel requests: exactly one
// caller sees won=true and owns the follow-up refund. won=false with a nil
// error means another request already cancelled the booking.
func (r *BookingRepository) MarkCancelled(id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2
		WHERE id = $1 AND status IN ('pending', 'confirmed')
	`
	result, err := r.db.Exec(query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	var status models.BookingStatus
	if err := r.db.Get(&status, `SELECT status FROM bookings WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, models.ErrBookingNotFound
		}
		return false, fmt.Errorf("failed to check booking status: %w", err)
	}
	return false, nil
}

// SetRefundID records the provider refund id as evidence on the booking
func (r *BookingRepository) SetRefundID(id uuid.UUID, refundID string) error {
	result, err := r.db.Exec(`UPDATE bookings SET refund_id = $2 WHERE id = $1`, id, refundID)
	if err != nil {
		return fmt.Errorf("failed to set refund id: %w", err)
	}
	return requireRowAffected(result, models.ErrBookingNotFound)
}

// ExpireStalePending cancels pending bookings older than the hold window so
// they stop consuming seat capacity. Returns the number of bookings expired.
func (r *BookingRepository) ExpireStalePending(holdTTL time.Duration) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW()
		WHERE status = 'pending' AND created_at < $1
	`
	result, err := r.db.Exec(query, time.Now().Add(-holdTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	return result.RowsAffected()
}

func requireRowAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
