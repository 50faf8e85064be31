package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/domain/remote"
	"github.com/lumenshell/platform/internal/shared/types"
)

// InstallRemoteApp installs a remote bundle from its manifest.
func (h *Handlers) InstallRemoteApp(c *gin.Context) {
	var manifest types.AppManifest
	if err := c.ShouldBindJSON(&manifest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid manifest: " + err.Error(),
		})
		return
	}
	if manifest.ID == "" || manifest.Remote == nil || manifest.Remote.SourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "manifest must carry an id and a remote source url",
		})
		return
	}

	if err := h.loader.Install(c.Request.Context(), manifest); err != nil {
		var ierr *remote.IntegrityError
		if errors.As(err, &ierr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   ierr.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// CheckRemoteUpdates compares installed remote apps against their
// source manifests without changing anything.
func (h *Handlers) CheckRemoteUpdates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updates": h.loader.CheckForUpdates(c.Request.Context()),
	})
}

// Catalog lists apps from the configured remote registry.
func (h *Handlers) Catalog(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "no remote registry configured",
		})
		return
	}

	if query := c.Query("q"); query != "" {
		entries, err := h.catalog.Search(c.Request.Context(), query)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"entries": entries,
		})
		return
	}

	entries, err := h.catalog.Catalog(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
	})
}

// CatalogManifest fetches one manifest from the remote registry.
func (h *Handlers) CatalogManifest(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "no remote registry configured",
		})
		return
	}

	manifest, err := h.catalog.Manifest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"manifest": manifest,
	})
}
