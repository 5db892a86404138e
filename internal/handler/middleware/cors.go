package middleware

import (
	"log/slog"
	"slices"

	"booking-core/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowHeaders := cfg.AllowHeaders
	// Reservation creation always travels with this header; allow it even
	// when the deployment config forgets to list it.
	if !slices.Contains(allowHeaders, "Idempotency-Key") {
		allowHeaders = append(slices.Clone(allowHeaders), "Idempotency-Key")
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized", "AllowOrigins", cfg.AllowOrigins)
	return cors.New(corsCfg)
}
