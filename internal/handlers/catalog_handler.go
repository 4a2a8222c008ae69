package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/database"
)

// CatalogHandler serves the static network catalog: districts and routes
type CatalogHandler struct {
	catalog *database.CatalogRepository
	logger  *logrus.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *database.CatalogRepository, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ListDistricts handles GET /api/v1/districts
func (h *CatalogHandler) ListDistricts(c *gin.Context) {
	districts, err := h.catalog.ListDistricts()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list districts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list districts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"districts": districts})
}

// ListRoutes handles GET /api/v1/routes?from=
func (h *CatalogHandler) ListRoutes(c *gin.Context) {
	var originID *int
	if v := c.Query("from"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from district id"})
			return
		}
		originID = &id
	}

	routes, err := h.catalog.ListRoutes(originID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list routes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}
