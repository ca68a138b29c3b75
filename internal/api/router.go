// Package api exposes the recommender over HTTP.
package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
)

// NewRouter sets up the API router. An empty origin list, or one containing
// "*", allows every origin.
func NewRouter(recommender Recommender, corsOrigins []string, log *zap.Logger) *gin.Engine {
	log = logger.WithFields(log).Named("api")

	router := gin.New()

	router.Use(RequestID())
	router.Use(AccessLog(log))
	router.Use(Recovery(log))
	router.Use(cors.New(corsConfig(corsOrigins)))

	handler := NewHandler(recommender, log)

	router.GET("/", handler.Root)
	router.GET("/healthz", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/recommend", handler.Recommend)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Not Found"})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	return cfg
}
