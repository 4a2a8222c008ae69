package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/services"
	"github.com/travelsuite/bus-booking-backend/pkg/payments"
)

// In-memory stores backing the booking service under test.

type stubOccurrences struct{ occ *models.ScheduleOccurrence }

func (s *stubOccurrences) GetByID(id uuid.UUID) (*models.ScheduleOccurrence, error) {
	if s.occ != nil && s.occ.ID == id {
		cp := *s.occ
		return &cp, nil
	}
	return nil, models.ErrOccurrenceNotFound
}

type stubBookings struct {
	mu         sync.Mutex
	reserveErr error
	byID       map[uuid.UUID]*models.Booking
}

func newStubBookings() *stubBookings {
	return &stubBookings{byID: make(map[uuid.UUID]*models.Booking)}
}

func (s *stubBookings) ReservePending(b *models.Booking, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return 0, s.reserveErr
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Status = models.BookingStatusPending
	b.CreatedAt = time.Now()
	cp := *b
	s.byID[b.ID] = &cp
	return 5, nil
}

func (s *stubBookings) GetByID(id uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *stubBookings) GetByPhone(string) ([]models.Booking, error) { return nil, nil }

func (s *stubBookings) GetByRouteID(int) ([]models.Booking, error) { return nil, nil }

func (s *stubBookings) UpdateStatus(id uuid.UUID, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return models.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (s *stubBookings) MarkCancelled(id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return false, models.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
		return false, nil
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	return true, nil
}

func (s *stubBookings) SetRefundID(id uuid.UUID, refundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return models.ErrBookingNotFound
	}
	b.RefundID = &refundID
	return nil
}

type stubPayments struct {
	mu   sync.Mutex
	txns map[uuid.UUID]*models.PaymentTransaction
}

func newStubPayments() *stubPayments {
	return &stubPayments{txns: make(map[uuid.UUID]*models.PaymentTransaction)}
}

func (s *stubPayments) CreateTransaction(txn *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	cp := *txn
	s.txns[txn.ID] = &cp
	return nil
}

func (s *stubPayments) GetTransactionByBookingID(bookingID uuid.UUID) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range s.txns {
		if txn.BookingID == bookingID {
			cp := *txn
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubPayments) UpdateTransaction(txn *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *txn
	s.txns[txn.ID] = &cp
	return nil
}

func (s *stubPayments) CreateRefund(*models.Refund) error { return nil }

type stubOperators struct{}

func (stubOperators) GetByUsername(string) (*models.Operator, error) {
	return nil, errors.New("operator not found")
}

func (stubOperators) GetByID(uuid.UUID) (*models.Operator, error) {
	return nil, errors.New("operator not found")
}

func (stubOperators) IsAssignedToRoute(uuid.UUID, int) (bool, error) { return false, nil }

func bookableOccurrence() *models.ScheduleOccurrence {
	return &models.ScheduleOccurrence{
		ID:          uuid.New(),
		Status:      models.OccurrenceStatusScheduled,
		DepartureAt: time.Now().Add(3 * time.Hour),
		Date:        time.Now(),
		Capacity:    40,
		Fare:        decimal.NewFromInt(25000),
		RouteID:     1,
		OriginName:  "Kampala",
		DestName:    "Mbale",
	}
}

func newBookingTestRouter(t *testing.T, occ *models.ScheduleOccurrence, bookings *stubBookings, gateway payments.Gateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := services.NewBookingService(
		&stubOccurrences{occ: occ},
		bookings,
		newStubPayments(),
		stubOperators{},
		nil,
		payments.NewRegistry(gateway),
		services.NewRefundPolicy(60*time.Minute),
		nil,
		nil,
		logger,
		services.BookingConfig{
			PendingTTL:     15 * time.Minute,
			Currency:       "UGX",
			PaymentTimeout: 5 * time.Second,
		},
	)
	handler := NewBookingHandler(service, logger)

	router := gin.New()
	router.POST("/api/v1/bookings", handler.CreateBooking)
	router.POST("/api/v1/bookings/:id/cancel", handler.CancelBooking)
	router.GET("/api/v1/bookings/:id/status", handler.GetBookingStatus)
	return router
}

func createBookingBody(t *testing.T, occID uuid.UUID, method string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(gin.H{
		"passenger_name":         "Namukasa Joy",
		"phone_number":           "0771234567",
		"schedule_occurrence_id": occID.String(),
		"payment_method":         method,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func postJSON(router *gin.Engine, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateBookingEndpoint_Confirmed(t *testing.T) {
	occ := bookableOccurrence()
	bookings := newStubBookings()
	router := newBookingTestRouter(t, occ, bookings, &payments.MockGateway{Provider: "mtn"})

	w := postJSON(router, "/api/v1/bookings", createBookingBody(t, occ.ID, "mtn"))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Booking *models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Booking)
	assert.Equal(t, models.BookingStatusConfirmed, resp.Booking.Status)
}

func TestCreateBookingEndpoint_PaymentFailureReturns402WithPendingBooking(t *testing.T) {
	gateway := &payments.MockGateway{
		Provider: "mtn",
		CreateFunc: func(ctx context.Context, params payments.CreateParams) (*payments.CreateResult, error) {
			return nil, errors.New("provider unreachable")
		},
	}
	occ := bookableOccurrence()
	bookings := newStubBookings()
	router := newBookingTestRouter(t, occ, bookings, gateway)

	w := postJSON(router, "/api/v1/bookings", createBookingBody(t, occ.ID, "mtn"))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// The still-pending booking rides along so the client can poll its status.
	var resp struct {
		Error   string          `json:"error"`
		Booking *models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Payment failed", resp.Error)
	require.NotNil(t, resp.Booking)
	assert.Equal(t, models.BookingStatusPending, resp.Booking.Status)

	stored, err := bookings.GetByID(resp.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
}

func TestCreateBookingEndpoint_CapacityExhaustedReturns409(t *testing.T) {
	occ := bookableOccurrence()
	bookings := newStubBookings()
	bookings.reserveErr = models.ErrCapacityExhausted
	router := newBookingTestRouter(t, occ, bookings, &payments.MockGateway{Provider: "mtn"})

	w := postJSON(router, "/api/v1/bookings", createBookingBody(t, occ.ID, "mtn"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no seats available")
}

func TestCreateBookingEndpoint_UnknownOccurrenceReturns404(t *testing.T) {
	bookings := newStubBookings()
	router := newBookingTestRouter(t, nil, bookings, &payments.MockGateway{Provider: "mtn"})

	w := postJSON(router, "/api/v1/bookings", createBookingBody(t, uuid.New(), "mtn"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBookingEndpoint_InvalidPhoneReturns400(t *testing.T) {
	occ := bookableOccurrence()
	bookings := newStubBookings()
	router := newBookingTestRouter(t, occ, bookings, &payments.MockGateway{Provider: "mtn"})

	body, err := json.Marshal(gin.H{
		"passenger_name":         "Namukasa Joy",
		"phone_number":           "0123456789",
		"schedule_occurrence_id": occ.ID.String(),
		"payment_method":         "mtn",
	})
	require.NoError(t, err)

	w := postJSON(router, "/api/v1/bookings", bytes.NewBuffer(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid phone number")
}

func TestCancelBookingEndpoint_NotFoundReturns404(t *testing.T) {
	bookings := newStubBookings()
	router := newBookingTestRouter(t, bookableOccurrence(), bookings, &payments.MockGateway{Provider: "mtn"})

	w := postJSON(router, "/api/v1/bookings/"+uuid.New().String()+"/cancel", bytes.NewBuffer(nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
