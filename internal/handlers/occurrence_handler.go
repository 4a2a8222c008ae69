package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/database"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/services"
)

// OccurrenceHandler handles schedule search endpoints
type OccurrenceHandler struct {
	occurrences *services.OccurrenceService
	logger      *logrus.Logger
}

// NewOccurrenceHandler creates a new OccurrenceHandler
func NewOccurrenceHandler(occurrences *services.OccurrenceService, logger *logrus.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{occurrences: occurrences, logger: logger}
}

// ListOccurrences handles GET /api/v1/occurrences
// Optional query params: route_id, origin_id, destination_id, date (YYYY-MM-DD)
func (h *OccurrenceHandler) ListOccurrences(c *gin.Context) {
	var filter database.OccurrenceFilter

	if v := c.Query("route_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route_id"})
			return
		}
		filter.RouteID = &id
	}
	if v := c.Query("origin_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid origin_id"})
			return
		}
		filter.OriginID = &id
	}
	if v := c.Query("destination_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination_id"})
			return
		}
		filter.DestinationID = &id
	}
	if v := c.Query("date"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		filter.Date = &date
	}

	occurrences, err := h.occurrences.ListBookable(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list occurrences")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list occurrences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"occurrences": occurrences,
		"count":       len(occurrences),
	})
}

// GetOccurrence handles GET /api/v1/occurrences/:id
func (h *OccurrenceHandler) GetOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid occurrence id"})
		return
	}

	occ, err := h.occurrences.GetOccurrence(id)
	if err != nil {
		if errors.Is(err, models.ErrOccurrenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to get occurrence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get occurrence"})
		return
	}

	c.JSON(http.StatusOK, occ)
}
