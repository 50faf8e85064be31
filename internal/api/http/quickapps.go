package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/domain/quickapp"
	"github.com/lumenshell/platform/internal/shared/types"
)

// maxDocumentBytes bounds accepted quick-app documents.
const maxDocumentBytes = 1 << 20

// InstallQuickApp installs a quick app from a raw document body.
func (h *Handlers) InstallQuickApp(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "request body must be a quick app document",
		})
		return
	}
	if len(body) > maxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error":   "document exceeds the size limit",
		})
		return
	}

	install, err := h.quick.InstallFromMarkdown(c.Request.Context(), string(body), types.OriginPaste, "")
	if err != nil {
		h.quickAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"app":     install,
	})
}

// InstallQuickAppFromURL fetches a document and installs it.
func (h *Handlers) InstallQuickAppFromURL(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request: " + err.Error(),
		})
		return
	}

	install, err := h.quick.InstallFromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.quickAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"app":     install,
	})
}

// ListQuickApps returns every stored installation.
func (h *Handlers) ListQuickApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"apps":    h.quick.List(),
	})
}

// GetQuickApp returns one stored installation with its source blocks.
func (h *Handlers) GetQuickApp(c *gin.Context) {
	install, ok := h.quick.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "quick app not installed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"app":     install,
	})
}

// quickAppError maps pipeline failures onto status codes: malformed
// documents and failed compiles are the caller's fault, everything
// else is ours.
func (h *Handlers) quickAppError(c *gin.Context, err error) {
	var perr *quickapp.ParseError
	var cerr *quickapp.CompileError
	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   perr.Error(),
		})
	case errors.As(err, &cerr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":     false,
			"error":       cerr.Error(),
			"diagnostics": cerr.Diagnostics,
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}
