package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/smmpanel/internal/server/http/dto"
)

// ServiceHandler serves the catalog and health endpoints.
type ServiceHandler struct {
	catalog CatalogFacade
	health  HealthFacade
}

// NewServiceHandler constructs ServiceHandler.
func NewServiceHandler(catalog CatalogFacade, health HealthFacade) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, health: health}
}

// List handles GET /api/services.
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.catalog.Services(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := make([]dto.ServiceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, dto.ServiceResponse{
			ID:           s.ID,
			Name:         s.Name,
			Platform:     s.Platform,
			PricePer1000: s.PricePer1000,
			MinQuantity:  s.MinQuantity,
			MaxQuantity:  s.MaxQuantity,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles GET /healthz.
func (h *ServiceHandler) Health(c *gin.Context) {
	if err := h.health.HealthCheck(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
