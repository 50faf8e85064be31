package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/shared/types"
)

// ListApps returns every installed app plus the active id.
func (h *Handlers) ListApps(c *gin.Context) {
	apps := h.lifecycle.List()
	active, _ := h.lifecycle.Active()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"apps":    apps,
		"active":  active,
	})
}

// GetApp returns one installed app.
func (h *Handlers) GetApp(c *gin.Context) {
	app, ok := h.lifecycle.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "app not installed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"app":     app,
	})
}

// OpenApp activates an app, saving the caller-provided snapshot of
// whatever was active before.
func (h *Handlers) OpenApp(c *gin.Context) {
	var req struct {
		Snapshot types.Snapshot `json:"snapshot"`
	}
	// The body is optional; an empty snapshot is fine.
	_ = c.ShouldBindJSON(&req)

	if !h.lifecycle.Open(c.Param("id"), req.Snapshot) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "app not installed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CloseApp deactivates the active app and returns its saved snapshot.
func (h *Handlers) CloseApp(c *gin.Context) {
	snapshot, ok := h.lifecycle.Close()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"was_active": ok,
		"snapshot":   snapshot,
	})
}

// UninstallApp removes an app through whichever subsystem owns it, so
// permissions, bundles, and quick-app records go with it.
func (h *Handlers) UninstallApp(c *gin.Context) {
	id := c.Param("id")
	app, ok := h.lifecycle.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "app not installed",
		})
		return
	}

	if h.quick != nil && h.quick.Uninstall(id) {
		h.ledger.ClearApp(id)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	// The loader clears the app's grants itself.
	if app.Manifest.Remote != nil && h.loader != nil {
		h.loader.Uninstall(id)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	h.ledger.ClearApp(id)
	h.lifecycle.Uninstall(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetAppStatus drives the lifecycle state machine.
func (h *Handlers) SetAppStatus(c *gin.Context) {
	var req struct {
		Status    types.AppStatus `json:"status" binding:"required"`
		LastError string          `json:"last_error"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return
	}

	if err := h.lifecycle.SetStatus(c.Param("id"), req.Status, req.LastError); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AppStats summarizes the lifecycle table.
func (h *Handlers) AppStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.lifecycle.Stats(),
	})
}
