package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDock returns the ordered dock.
func (h *Handlers) GetDock(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dock":    h.lifecycle.Dock(),
	})
}

// AddToDock pins an installed app to the dock.
func (h *Handlers) AddToDock(c *gin.Context) {
	var req struct {
		Position *int `json:"position"`
	}
	_ = c.ShouldBindJSON(&req)
	position := -1
	if req.Position != nil {
		position = *req.Position
	}

	if err := h.lifecycle.AddToDock(c.Param("id"), position); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dock":    h.lifecycle.Dock(),
	})
}

// RemoveFromDock unpins an app. Unknown ids are a no-op.
func (h *Handlers) RemoveFromDock(c *gin.Context) {
	h.lifecycle.RemoveFromDock(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dock":    h.lifecycle.Dock(),
	})
}

// ReorderDock replaces the dock order with a permutation of itself.
func (h *Handlers) ReorderDock(c *gin.Context) {
	var req struct {
		Order []string `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return
	}

	if err := h.lifecycle.ReorderDock(req.Order); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dock":    h.lifecycle.Dock(),
	})
}
