package services

import (
	"time"

	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// RefundPolicy decides whether a cancellation qualifies for an automatic
// refund. The decision is advisory only: a booking can always be cancelled,
// the policy only controls whether money moves back.
type RefundPolicy struct {
	// Window is the minimum lead time before departure. Cancelling with
	// strictly more than Window remaining qualifies; exactly Window does not.
	Window time.Duration
}

// NewRefundPolicy creates a refund policy with the given cancellation window
func NewRefundPolicy(window time.Duration) *RefundPolicy {
	return &RefundPolicy{Window: window}
}

// Eligible reports whether cancelling the booking now qualifies for a refund.
// Cash bookings never qualify; neither do bookings that were never paid, nor
// cancellations at or inside the window, nor departed occurrences.
func (p *RefundPolicy) Eligible(booking *models.Booking, occ *models.ScheduleOccurrence, now time.Time) bool {
	if booking.PaymentMethod == models.PaymentMethodCash {
		return false
	}
	if booking.Status != models.BookingStatusConfirmed {
		return false
	}
	remaining := occ.DepartureAt.Sub(now)
	if occ.Status == models.OccurrenceStatusDeparted || remaining <= 0 {
		return false
	}
	return remaining > p.Window
}
