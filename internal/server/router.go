package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the gin engine with middleware and routes registered.
func NewRouter(logger *slog.Logger, h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		RequestID(),
		Logging(logger),
		gin.Recovery(),
	)

	h.RegisterRoutes(r)
	return r
}
