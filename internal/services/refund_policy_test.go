package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

func policyBooking(method models.PaymentMethod, status models.BookingStatus) *models.Booking {
	return &models.Booking{PaymentMethod: method, Status: status}
}

var policyNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func policyOccurrence(departsIn time.Duration, status models.OccurrenceStatus) *models.ScheduleOccurrence {
	return &models.ScheduleOccurrence{
		Status:      status,
		DepartureAt: policyNow.Add(departsIn),
	}
}

func TestRefundPolicy_Eligible(t *testing.T) {
	policy := NewRefundPolicy(60 * time.Minute)
	now := policyNow

	tests := []struct {
		name     string
		booking  *models.Booking
		occ      *models.ScheduleOccurrence
		eligible bool
	}{
		{
			name:     "well outside window",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusConfirmed),
			occ:      policyOccurrence(121*time.Minute, models.OccurrenceStatusScheduled),
			eligible: true,
		},
		{
			name:     "just outside window",
			booking:  policyBooking(models.PaymentMethodAirtel, models.BookingStatusConfirmed),
			occ:      policyOccurrence(61*time.Minute, models.OccurrenceStatusScheduled),
			eligible: true,
		},
		{
			name:     "exactly at window boundary",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusConfirmed),
			occ:      policyOccurrence(60*time.Minute, models.OccurrenceStatusScheduled),
			eligible: false,
		},
		{
			name:     "inside window",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusConfirmed),
			occ:      policyOccurrence(59*time.Minute, models.OccurrenceStatusScheduled),
			eligible: false,
		},
		{
			name:     "cash never refunds",
			booking:  policyBooking(models.PaymentMethodCash, models.BookingStatusConfirmed),
			occ:      policyOccurrence(5*time.Hour, models.OccurrenceStatusScheduled),
			eligible: false,
		},
		{
			name:     "pending was never paid",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusPending),
			occ:      policyOccurrence(5*time.Hour, models.OccurrenceStatusScheduled),
			eligible: false,
		},
		{
			name:     "departed occurrence",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusConfirmed),
			occ:      policyOccurrence(-10*time.Minute, models.OccurrenceStatusDeparted),
			eligible: false,
		},
		{
			name:     "departure instant already passed",
			booking:  policyBooking(models.PaymentMethodMTN, models.BookingStatusConfirmed),
			occ:      policyOccurrence(-1*time.Minute, models.OccurrenceStatusScheduled),
			eligible: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.eligible, policy.Eligible(tc.booking, tc.occ, now))
		})
	}
}
