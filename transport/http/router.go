package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caracol-studio/formgate/ports"
	"github.com/caracol-studio/formgate/service"
)

// SetupRouter builds the Gin router. The challenge endpoint is only
// mounted for providers that issue their own challenges; remote
// authorities hand out challenges themselves.
func SetupRouter(pipeline *service.Pipeline, issuer ports.ChallengeIssuer, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	handlers := NewHandlers(pipeline, issuer, log)

	if issuer != nil {
		router.GET("/challenge", handlers.GetChallenge)
	}
	router.POST("/messages", handlers.CreateMessage)

	router.GET("/healthz", handlers.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
