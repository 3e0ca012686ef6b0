package api

import (
	"net/http"

	"reelforge-server/service"

	"github.com/gin-gonic/gin"
)

// IngestAsset runs the acquisition fallback chain once for a single query.
// A well-formed request never hard-fails: worst case the response carries the
// fixed fallback URL. POST /v1/api/ingest
func IngestAsset(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "query is required"})
		return
	}

	asset := resolver.Resolve(c.Request.Context(), req.Query)

	resp := gin.H{
		"success": true,
		"url":     asset.URL,
		"source":  asset.Provider,
	}
	if asset.AssetID != "" {
		resp["asset_id"] = asset.AssetID
	}
	if asset.Provider == service.ProviderCoverr {
		resp["note"] = "primary provider unavailable, served fallback asset"
	}
	c.JSON(http.StatusOK, resp)
}
