package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/api/models"
)

const defaultRankLimit = 10

// Rank handles GET /api/v1/reconcile/:id/rank
// Assets are ordered by consumption above contract, largest first.
func (h *ReconcileHandler) Rank(c *gin.Context) {
	stored, ok := h.lookup(c)
	if !ok {
		return
	}

	limit := defaultRankLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	ranked := analysis.RankByExcess(analysis.SummarizeFleet(stored.Assets, stored.Result, stored.Policy))
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.AssetSummary, len(ranked))
	for i, r := range ranked {
		rankings[i] = toSummary(r.AssetSummary)
		rankings[i].Rank = r.Rank
	}

	c.JSON(http.StatusOK, models.RankResponse{ID: stored.ID, Rankings: rankings})
}
