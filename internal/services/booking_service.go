package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/monitoring"
	"github.com/travelsuite/bus-booking-backend/pkg/notify"
	"github.com/travelsuite/bus-booking-backend/pkg/payments"
	"github.com/travelsuite/bus-booking-backend/pkg/validator"
)

// ErrOperatorNotAssigned is returned when an operator tries to sell on a
// route they have no active assignment for.
var ErrOperatorNotAssigned = errors.New("operator is not assigned to this route")

// BookingConfig holds the tunables of the booking pipeline
type BookingConfig struct {
	// PendingTTL is how long a pending booking holds its seat
	PendingTTL time.Duration
	// Currency for all gateway amounts
	Currency string
	// PaymentTimeout bounds each gateway call
	PaymentTimeout time.Duration
}

// RequestMeta carries client information captured at the HTTP edge for the
// payment audit trail.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// BookingService coordinates the booking transaction: seat reservation,
// payment, confirmation, and the compensating paths (cancel, refund).
//
// The seat is reserved under a database row lock that is released before any
// gateway call. A failed payment leaves the booking in pending state, where
// it keeps its seat until the hold expires; it is never silently deleted.
type BookingService struct {
	occurrences OccurrenceStore
	bookings    BookingStore
	payments    PaymentStore
	operators   OperatorStore
	audits      AuditStore
	gateways    *payments.Registry
	policy      *RefundPolicy
	notifier    notify.Gateway
	phones      *validator.PhoneValidator
	metrics     *monitoring.Metrics
	logger      *logrus.Logger
	config      BookingConfig
}

// NewBookingService creates a new booking coordinator. notifier and audits
// may be nil; notification and auditing are then skipped.
func NewBookingService(
	occurrences OccurrenceStore,
	bookings BookingStore,
	paymentStore PaymentStore,
	operators OperatorStore,
	audits AuditStore,
	gateways *payments.Registry,
	policy *RefundPolicy,
	notifier notify.Gateway,
	metrics *monitoring.Metrics,
	logger *logrus.Logger,
	config BookingConfig,
) *BookingService {
	return &BookingService{
		occurrences: occurrences,
		bookings:    bookings,
		payments:    paymentStore,
		operators:   operators,
		audits:      audits,
		gateways:    gateways,
		policy:      policy,
		notifier:    notifier,
		phones:      validator.NewPhoneValidator(),
		metrics:     metrics,
		logger:      logger,
		config:      config,
	}
}

// CreateBooking runs the full booking transaction for a passenger request:
// validate, reserve a seat, charge, verify, confirm.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest, meta RequestMeta) (*models.Booking, error) {
	return s.create(ctx, req, nil, meta)
}

// CreateOperatorBooking creates a cash booking sold at the counter by an
// operator. The operator must hold an active assignment on the route.
func (s *BookingService) CreateOperatorBooking(ctx context.Context, operatorID uuid.UUID, req *models.CreateBookingRequest, meta RequestMeta) (*models.Booking, error) {
	if req.PaymentMethod != models.PaymentMethodCash {
		return nil, models.ErrInvalidPaymentMethod
	}

	occID, err := uuid.Parse(req.ScheduleOccurrenceID)
	if err != nil {
		return nil, models.ErrOccurrenceNotFound
	}
	occ, err := s.occurrences.GetByID(occID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.operators.IsAssignedToRoute(operatorID, occ.RouteID)
	if err != nil {
		return nil, fmt.Errorf("failed to check route assignment: %w", err)
	}
	if !assigned {
		s.logger.WithFields(logrus.Fields{
			"operator_id": operatorID,
			"route_id":    occ.RouteID,
		}).Warn("Operator booking rejected: no route assignment")
		return nil, ErrOperatorNotAssigned
	}

	return s.create(ctx, req, &operatorID, meta)
}

func (s *BookingService) create(ctx context.Context, req *models.CreateBookingRequest, operatorID *uuid.UUID, meta RequestMeta) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		s.rejected("validation")
		return nil, &models.ValidationError{Msg: err.Error()}
	}
	phone, err := s.phones.Validate(req.PhoneNumber)
	if err != nil {
		s.rejected("validation")
		return nil, &models.ValidationError{Msg: "invalid phone number: " + err.Error()}
	}

	occID, err := uuid.Parse(req.ScheduleOccurrenceID)
	if err != nil {
		s.rejected("validation")
		return nil, models.ErrOccurrenceNotFound
	}

	occ, err := s.occurrences.GetByID(occID)
	if err != nil {
		s.rejected("occurrence_not_found")
		return nil, err
	}

	now := time.Now()
	if occ.Status != models.OccurrenceStatusScheduled {
		s.rejected("not_bookable")
		return nil, models.ErrOccurrenceNotBookable
	}
	if !occ.DepartureAt.After(now) {
		s.rejected("departed")
		return nil, models.ErrDepartureWindowClosed
	}

	booking := &models.Booking{
		ID:                   uuid.New(),
		PassengerName:        req.PassengerName,
		PhoneNumber:          phone,
		Email:                req.Email,
		ScheduleOccurrenceID: occ.ID,
		PaymentMethod:        req.PaymentMethod,
		OperatorID:           operatorID,
	}

	remaining, err := s.bookings.ReservePending(booking, s.config.PendingTTL)
	if err != nil {
		if errors.Is(err, models.ErrCapacityExhausted) {
			s.rejected("capacity")
			s.logger.WithFields(logrus.Fields{
				"occurrence_id": occ.ID,
				"phone":         phone,
			}).Info("Booking rejected: no seats left")
		} else {
			s.rejected("reserve_failed")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"occurrence_id":  occ.ID,
		"payment_method": booking.PaymentMethod,
		"remaining":      remaining,
	}).Info("Seat reserved, booking pending")

	if err := s.settle(ctx, booking, occ, meta); err != nil {
		// Booking stays pending; the hold sweeper releases the seat if the
		// passenger never retries.
		return booking, err
	}

	booking.Status = models.BookingStatusConfirmed
	if err := s.bookings.UpdateStatus(booking.ID, models.BookingStatusConfirmed); err != nil {
		return booking, fmt.Errorf("payment settled but confirmation failed: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.WithLabelValues(string(booking.PaymentMethod)).Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"occurrence_id":  occ.ID,
		"payment_method": booking.PaymentMethod,
	}).Info("Booking confirmed")

	s.notifyAsync(booking.PhoneNumber, fmt.Sprintf(
		"Your seat %s to %s on %s at %s is confirmed. Booking ref: %s",
		occ.OriginName, occ.DestName, occ.Date.Format("02 Jan 2006"), occ.DepartureTime,
		shortRef(booking.ID),
	))

	return booking, nil
}

// settle charges the booking through its payment gateway and verifies
// settlement. The booking id is the idempotency key for the whole exchange.
func (s *BookingService) settle(ctx context.Context, booking *models.Booking, occ *models.ScheduleOccurrence, meta RequestMeta) error {
	gateway, err := s.gateways.Get(string(booking.PaymentMethod))
	if err != nil {
		return models.ErrInvalidPaymentMethod
	}

	params := payments.CreateParams{
		IdempotencyKey: booking.ID.String(),
		Amount:         occ.Fare,
		Currency:       s.config.Currency,
		PhoneNumber:    booking.PhoneNumber,
		Description:    fmt.Sprintf("Bus ticket %s-%s %s", occ.OriginName, occ.DestName, occ.Date.Format("2006-01-02")),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.PaymentTimeout)
	defer cancel()

	start := time.Now()
	result, err := gateway.CreatePayment(callCtx, params)
	s.observeGateway(gateway.Name(), "create", start)

	txn := &models.PaymentTransaction{
		Provider:       booking.PaymentMethod,
		Amount:         occ.Fare,
		Status:         models.TransactionStatusPending,
		IdempotencyKey: booking.ID.String(),
		BookingID:      booking.ID,
	}

	if err != nil {
		txn.Status = models.TransactionStatusFailed
		txn.ResponseRaw = errorRaw(err)
		s.persistTransaction(txn)
		s.audit(booking, occ.Fare, models.PaymentAuditCreate, "failed", nil, err, meta, start)
		s.rejected("payment_create")
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"provider":   booking.PaymentMethod,
		}).WithError(err).Error("Payment creation failed, booking left pending")
		return &models.PaymentError{Stage: models.PaymentStageCreate, Provider: booking.PaymentMethod, Err: err}
	}

	txn.ProviderTransactionID = &result.TransactionID
	txn.ResponseRaw = result.Raw
	txn.Status = transactionStatus(result.Status)
	s.persistTransaction(txn)
	s.audit(booking, occ.Fare, models.PaymentAuditCreate, string(result.Status), &result.TransactionID, nil, meta, start)

	if txn.Status == models.TransactionStatusFailed {
		s.rejected("payment_declined")
		return &models.PaymentError{Stage: models.PaymentStageCreate, Provider: booking.PaymentMethod, Err: errors.New("payment declined")}
	}

	if txn.Status == models.TransactionStatusCompleted {
		return nil
	}

	// Charge accepted but not yet settled; confirm settlement before the
	// booking is confirmed.
	start = time.Now()
	verify, err := gateway.VerifyPayment(callCtx, result.TransactionID)
	s.observeGateway(gateway.Name(), "verify", start)

	if err != nil || transactionStatus(verify.Status) != models.TransactionStatusCompleted {
		txn.Status = models.TransactionStatusFailed
		if verify != nil {
			txn.ResponseRaw = verify.Raw
		}
		if uerr := s.payments.UpdateTransaction(txn); uerr != nil {
			s.logger.WithError(uerr).Error("Failed to record failed verification")
		}
		s.audit(booking, occ.Fare, models.PaymentAuditVerify, "failed", &result.TransactionID, err, meta, start)
		s.rejected("payment_verify")
		s.logger.WithFields(logrus.Fields{
			"booking_id":     booking.ID,
			"transaction_id": result.TransactionID,
		}).Warn("Payment verification failed, booking left pending")
		return &models.PaymentError{Stage: models.PaymentStageVerify, Provider: booking.PaymentMethod, Err: err}
	}

	txn.Status = models.TransactionStatusCompleted
	txn.ResponseRaw = verify.Raw
	if err := s.payments.UpdateTransaction(txn); err != nil {
		s.logger.WithError(err).Error("Failed to record settled transaction")
	}
	s.audit(booking, occ.Fare, models.PaymentAuditVerify, "completed", &result.TransactionID, nil, meta, start)
	return nil
}

// CancelBooking cancels a booking and, when the refund policy allows,
// reverses the payment. Cancellation always wins: a failed refund is recorded
// and logged but never rolls the cancellation back. Repeated cancellation of
// the same booking is a no-op; the conditional cancelled flip in the store
// guarantees only one request ever proceeds to refund, no matter how the
// requests interleave.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, meta RequestMeta) (*models.CancelBookingResponse, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingStatusCancelled {
		return cancelledResponse(booking), nil
	}

	occ, err := s.occurrences.GetByID(booking.ScheduleOccurrenceID)
	if err != nil {
		return nil, err
	}
	if !booking.CanCancel(occ) {
		return nil, models.ErrBookingNotCancellable
	}

	now := time.Now()
	eligible := s.policy.Eligible(booking, occ, now)

	won, err := s.bookings.MarkCancelled(booking.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent cancel got there first and owns the refund.
		current, err := s.bookings.GetByID(booking.ID)
		if err != nil {
			return nil, err
		}
		return cancelledResponse(current), nil
	}
	if s.metrics != nil {
		s.metrics.BookingsCancelled.Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"refund_eligible": eligible,
	}).Info("Booking cancelled")

	resp := &models.CancelBookingResponse{Cancelled: true}
	if eligible {
		refundID, err := s.refund(ctx, booking, occ, meta)
		if err != nil {
			// Cancellation stands; the money side is handled out of band.
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
			}).WithError(err).Error("Refund failed after cancellation")
		} else {
			resp.RefundProcessed = true
			resp.RefundID = &refundID
		}
	}

	s.notifyAsync(booking.PhoneNumber, fmt.Sprintf(
		"Your booking %s has been cancelled.", shortRef(booking.ID),
	))

	return resp, nil
}

// refund reverses the settled payment for a cancelled booking. Failed
// attempts are persisted as failed refund rows.
func (s *BookingService) refund(ctx context.Context, booking *models.Booking, occ *models.ScheduleOccurrence, meta RequestMeta) (string, error) {
	txn, err := s.payments.GetTransactionByBookingID(booking.ID)
	if err != nil {
		return "", err
	}
	if txn == nil || txn.Status != models.TransactionStatusCompleted || txn.ProviderTransactionID == nil {
		return "", fmt.Errorf("no settled payment to refund for booking %s", booking.ID)
	}

	gateway, err := s.gateways.Get(string(txn.Provider))
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.PaymentTimeout)
	defer cancel()

	start := time.Now()
	result, err := gateway.RefundPayment(callCtx, payments.RefundParams{
		TransactionID:  *txn.ProviderTransactionID,
		Amount:         txn.Amount,
		Currency:       s.config.Currency,
		IdempotencyKey: "refund-" + booking.ID.String(),
	})
	s.observeGateway(gateway.Name(), "refund", start)

	refund := &models.Refund{
		PaymentTransactionID: txn.ID,
		Amount:               txn.Amount,
	}

	if err != nil || result.Status != payments.StatusRefunded {
		refund.Status = models.RefundStatusFailed
		if err != nil {
			refund.ResponseRaw = errorRaw(err)
		} else {
			refund.ResponseRaw = result.Raw
		}
		if cerr := s.payments.CreateRefund(refund); cerr != nil {
			s.logger.WithError(cerr).Error("Failed to record failed refund")
		}
		s.audit(booking, txn.Amount, models.PaymentAuditRefund, "failed", txn.ProviderTransactionID, err, meta, start)
		if s.metrics != nil {
			s.metrics.RefundAttempts.WithLabelValues("failed").Inc()
		}
		if err == nil {
			err = fmt.Errorf("refund not settled: status %s", result.Status)
		}
		return "", err
	}

	refund.Status = models.RefundStatusCompleted
	refund.ProviderRefundID = &result.RefundID
	refund.ResponseRaw = result.Raw
	if err := s.payments.CreateRefund(refund); err != nil {
		s.logger.WithError(err).Error("Failed to record refund")
	}

	// The booking stays cancelled; the refund is evidenced by refund_id on the
	// booking and the refunded status on the payment transaction.
	txn.Status = models.TransactionStatusRefunded
	if err := s.payments.UpdateTransaction(txn); err != nil {
		s.logger.WithError(err).Error("Failed to mark transaction refunded")
	}
	if err := s.bookings.SetRefundID(booking.ID, result.RefundID); err != nil {
		s.logger.WithError(err).Error("Failed to record refund id on booking")
	}

	s.audit(booking, txn.Amount, models.PaymentAuditRefund, "completed", &result.RefundID, nil, meta, start)
	if s.metrics != nil {
		s.metrics.RefundAttempts.WithLabelValues("completed").Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund_id":  result.RefundID,
		"amount":     txn.Amount.String(),
	}).Info("Refund settled")

	return result.RefundID, nil
}

// ListBookingsByPhone returns a passenger's bookings, newest first
func (s *BookingService) ListBookingsByPhone(phone string) ([]models.Booking, error) {
	sanitized, err := s.phones.Validate(phone)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid phone number: " + err.Error()}
	}
	return s.bookings.GetByPhone(sanitized)
}

// ListOperatorBookings returns the non-cancelled bookings on a route for an
// operator holding an active assignment there.
func (s *BookingService) ListOperatorBookings(operatorID uuid.UUID, routeID int) ([]models.Booking, error) {
	assigned, err := s.operators.IsAssignedToRoute(operatorID, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check route assignment: %w", err)
	}
	if !assigned {
		return nil, ErrOperatorNotAssigned
	}
	return s.bookings.GetByRouteID(routeID)
}

// GetBookingStatus returns the trimmed status view of a booking
func (s *BookingService) GetBookingStatus(bookingID uuid.UUID) (*models.BookingStatusResponse, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	resp := &models.BookingStatusResponse{
		ID:            booking.ID,
		Status:        booking.Status,
		PaymentMethod: booking.PaymentMethod,
		RefundID:      booking.RefundID,
	}

	txn, err := s.payments.GetTransactionByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if txn != nil {
		status := string(txn.Status)
		resp.PaymentStatus = &status
	}
	return resp, nil
}

func (s *BookingService) persistTransaction(txn *models.PaymentTransaction) {
	if err := s.payments.CreateTransaction(txn); err != nil {
		s.logger.WithFields(logrus.Fields{
			"booking_id": txn.BookingID,
		}).WithError(err).Error("Failed to persist payment transaction")
	}
}

func (s *BookingService) audit(booking *models.Booking, amount decimal.Decimal, event models.PaymentAuditEvent, outcome string, txnID *string, callErr error, meta RequestMeta, start time.Time) {
	if s.audits == nil {
		return
	}
	audit := &models.PaymentAudit{
		BookingID:        booking.ID,
		Provider:         booking.PaymentMethod,
		Event:            event,
		Amount:           amount,
		Outcome:          outcome,
		TransactionID:    txnID,
		IdempotencyKey:   booking.ID.String(),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	if callErr != nil {
		msg := callErr.Error()
		audit.ErrorMessage = &msg
	}
	if meta.ClientIP != "" {
		audit.ClientIP = &meta.ClientIP
	}
	if meta.UserAgent != "" {
		ua := user_agent.New(meta.UserAgent)
		browser, _ := ua.Browser()
		device := fmt.Sprintf("%s/%s", ua.OS(), browser)
		audit.ClientDevice = &device
	}
	if err := s.audits.Create(audit); err != nil {
		s.logger.WithError(err).Error("Failed to write payment audit")
	}
}

// cancelledResponse reports an already-cancelled booking. Whether money moved
// back is read off the refund_id evidence.
func cancelledResponse(booking *models.Booking) *models.CancelBookingResponse {
	return &models.CancelBookingResponse{
		Cancelled:       true,
		RefundProcessed: booking.RefundID != nil,
		RefundID:        booking.RefundID,
	}
}

func (s *BookingService) notifyAsync(phone, message string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, phone, message); err != nil {
			s.logger.WithError(err).Warn("SMS notification failed")
		}
	}()
}

func (s *BookingService) observeGateway(provider, operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.GatewayDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
	}
}

func (s *BookingService) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.BookingsRejected.WithLabelValues(reason).Inc()
	}
}

func transactionStatus(s payments.Status) models.TransactionStatus {
	switch s {
	case payments.StatusCompleted:
		return models.TransactionStatusCompleted
	case payments.StatusFailed:
		return models.TransactionStatusFailed
	case payments.StatusRefunded:
		return models.TransactionStatusRefunded
	default:
		return models.TransactionStatusPending
	}
}

func errorRaw(err error) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return raw
}

func shortRef(id uuid.UUID) string {
	return id.String()[:8]
}
