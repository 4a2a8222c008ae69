package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/internal/services"
)

// OperatorHandler handles counter operator authentication
type OperatorHandler struct {
	operators *services.OperatorService
	logger    *logrus.Logger
}

// NewOperatorHandler creates a new OperatorHandler
func NewOperatorHandler(operators *services.OperatorService, logger *logrus.Logger) *OperatorHandler {
	return &OperatorHandler{operators: operators, logger: logger}
}

// Login handles POST /api/v1/operator/login
func (h *OperatorHandler) Login(c *gin.Context) {
	var req models.OperatorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.operators.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Operator login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
