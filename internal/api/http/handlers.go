// Package http holds the gin handlers for the platform API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/domain/quickapp"
	"github.com/lumenshell/platform/internal/domain/remote"
	"github.com/lumenshell/platform/internal/domain/resolver"
	"github.com/lumenshell/platform/internal/infrastructure/logging"
)

// Handlers bundles the domain services behind the HTTP surface.
type Handlers struct {
	lifecycle *lifecycle.Manager
	ledger    *capability.Ledger
	quick     *quickapp.Registry
	loader    *remote.Loader
	catalog   *remote.Client
	resolver  *resolver.Resolver
	logger    *logging.Logger
}

// NewHandlers creates the handler set. The catalog client may be nil
// when no remote registry is configured.
func NewHandlers(
	lc *lifecycle.Manager,
	ledger *capability.Ledger,
	quick *quickapp.Registry,
	loader *remote.Loader,
	catalog *remote.Client,
	res *resolver.Resolver,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		lifecycle: lc,
		ledger:    ledger,
		quick:     quick,
		loader:    loader,
		catalog:   catalog,
		resolver:  res,
		logger:    logger,
	}
}

// Root returns basic service information.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "platform",
		"status":  "running",
	})
}

// Health reports liveness plus a few cheap stats.
func (h *Handlers) Health(c *gin.Context) {
	stats := h.lifecycle.Stats()
	active := ""
	if stats.ActiveAppID != nil {
		active = *stats.ActiveAppID
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"apps":   stats.TotalApps,
		"active": active,
	})
}

// ResolveComponent reports which source owns an app id.
func (h *Handlers) ResolveComponent(c *gin.Context) {
	id := c.Param("id")
	component, ok := h.resolver.Resolve(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no component registered for id " + id,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      component.AppID(),
		"kind":    component.Kind(),
	})
}
