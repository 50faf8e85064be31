package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/shared/types"
)

// ListCapabilities returns the full capability taxonomy.
func (h *Handlers) ListCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"capabilities": capability.All(),
	})
}

// AppPermissions lists the grants recorded for one app.
func (h *Handlers) AppPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"grants":  h.ledger.ForApp(c.Param("id")),
	})
}

// GrantPermission records user consent for one capability.
func (h *Handlers) GrantPermission(c *gin.Context) {
	grant, ok := h.bindCapability(c)
	if !ok {
		return
	}
	h.ledger.Grant(c.Param("id"), grant)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RevokePermission withdraws consent. Always-granted capabilities are
// unaffected.
func (h *Handlers) RevokePermission(c *gin.Context) {
	revoked, ok := h.bindCapability(c)
	if !ok {
		return
	}
	h.ledger.Revoke(c.Param("id"), revoked)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckPermissions returns the subset of requested capabilities that
// still need user consent, in request order.
func (h *Handlers) CheckPermissions(c *gin.Context) {
	var req struct {
		Capabilities []types.Capability `json:"capabilities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"required": h.ledger.Required(c.Param("id"), req.Capabilities),
	})
}

func (h *Handlers) bindCapability(c *gin.Context) (types.Capability, bool) {
	var req struct {
		Capability types.Capability `json:"capability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return "", false
	}
	if _, known := capability.Lookup(req.Capability); !known {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown capability " + string(req.Capability),
		})
		return "", false
	}
	return req.Capability, true
}
