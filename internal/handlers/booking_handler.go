package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/middleware"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/services"
)

// BookingHandler handles passenger booking endpoints
type BookingHandler struct {
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		h.respondCreateError(c, booking, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": booking,
	})
}

// CreateOperatorBooking handles POST /api/v1/operator/bookings (cash sales)
func (h *BookingHandler) CreateOperatorBooking(c *gin.Context) {
	opCtx, exists := middleware.GetOperatorContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookings.CreateOperatorBooking(c.Request.Context(), opCtx.OperatorID, &req, requestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrOperatorNotAssigned) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.respondCreateError(c, booking, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": booking,
	})
}

// ListBookings handles GET /api/v1/bookings?phone=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone query parameter is required"})
		return
	}

	bookings, err := h.bookings.ListBookingsByPhone(phone)
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ListOperatorBookings handles GET /api/v1/operator/bookings?route_id=
func (h *BookingHandler) ListOperatorBookings(c *gin.Context) {
	opCtx, exists := middleware.GetOperatorContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	routeID, err := strconv.Atoi(c.Query("route_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid route_id query parameter is required"})
		return
	}

	bookings, err := h.bookings.ListOperatorBookings(opCtx.OperatorID, routeID)
	if err != nil {
		if errors.Is(err, services.ErrOperatorNotAssigned) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to list route bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	resp, err := h.bookings.CancelBooking(c.Request.Context(), bookingID, requestMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrBookingNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Cancellation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBookingStatus handles GET /api/v1/bookings/:id/status
func (h *BookingHandler) GetBookingStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	resp, err := h.bookings.GetBookingStatus(bookingID)
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to load booking status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get booking status"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// respondCreateError maps booking pipeline errors onto HTTP statuses. A
// payment failure returns 402 along with the still-pending booking so the
// client can retry or poll its status.
func (h *BookingHandler) respondCreateError(c *gin.Context, booking *models.Booking, err error) {
	if pe, ok := models.IsPaymentError(err); ok {
		h.logger.WithFields(logrus.Fields{
			"stage":    pe.Stage,
			"provider": pe.Provider,
		}).WithError(err).Warn("Booking payment failed")
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Payment failed",
			"details": pe.Error(),
			"booking": booking,
		})
		return
	}

	if models.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch {
	case errors.Is(err, models.ErrCapacityExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOccurrenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDepartureWindowClosed),
		errors.Is(err, models.ErrOccurrenceNotBookable),
		errors.Is(err, models.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Booking creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
	}
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
