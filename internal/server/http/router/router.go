package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/smmpanel/internal/server/http/handlers"
	"github.com/polkiloo/smmpanel/internal/server/http/middleware"
)

// MetricsProvider exposes request instrumentation and the scrape endpoint.
type MetricsProvider interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PanelFacade, metrics MetricsProvider, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(metrics))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	orderHandler := handlers.NewOrderHandler(facade)
	serviceHandler := handlers.NewServiceHandler(facade, facade)

	api := engine.Group("/api")
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/services", serviceHandler.List)

	engine.GET("/healthz", serviceHandler.Health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	return engine
}
