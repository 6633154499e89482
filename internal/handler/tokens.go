package handler

import (
	"errors"
	"net/http"

	"tokenlens/internal/pipeline"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetTokens godoc
// @Summary      Get aggregated token market data
// @Description  Runs the multi-source aggregation pipeline over the configured token universe and returns one record per token, with per-source fragments omitted where a provider failed
// @Tags         tokens
// @Produce      json
// @Param        refresh  query  bool  false  "Bypass the cache and force a fresh aggregation run"  default(false)
// @Success      200  {object}  domain.RunResult
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/tokens [get]
func (h *Handler) GetTokens(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-tokens")
	defer span.End()

	refresh := c.Query("refresh") == "true"
	span.SetAttributes(attribute.Bool("refresh", refresh))

	result, err := h.tokenService.GetTokens(ctx, refresh)
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingMarketDataKey) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "CMC_API_KEY is not configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
