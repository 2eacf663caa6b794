package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fuel-reconcile/internal/api/models"
	"fuel-reconcile/internal/data"
)

// AssetsHandler handles fleet listing requests
type AssetsHandler struct {
	lister data.AssetLister
	log    *zap.Logger
}

// NewAssetsHandler creates a new assets handler
func NewAssetsHandler(lister data.AssetLister, log *zap.Logger) *AssetsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssetsHandler{lister: lister, log: log.Named("assets")}
}

// ListAssets handles GET /api/v1/assets
func (h *AssetsHandler) ListAssets(c *gin.Context) {
	if h.lister == nil {
		writeError(c, http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "no asset source is configured")
		return
	}

	assets, err := h.lister.ListAssets(c.Request.Context(), c.Query("enterprise_id"))
	if err != nil {
		h.log.Warn("list assets failed", zap.Error(err))
		writeFetchError(c, err)
		return
	}

	out := make([]models.AssetInfo, len(assets))
	for i, a := range assets {
		out[i] = models.AssetInfo{ID: a.ID, Name: a.Name, ImageURL: a.ImageURL}
	}
	c.JSON(http.StatusOK, models.AssetsResponse{Assets: out})
}
