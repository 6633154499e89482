package handler

import (
	"tokenlens/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer       trace.Tracer
	tokenService *service.TokenService
}

func New(tracer trace.Tracer, tokenService *service.TokenService) *Handler {
	return &Handler{
		tracer:       tracer,
		tokenService: tokenService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/tokens", h.GetTokens)
}
