package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the gin engine in an http.Server with sane timeouts.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(addr, allowedOrigins string, deps Deps, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(allowedOrigins))

	h := &handlers{deps: deps, logger: logger}
	registerRoutes(engine, h)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func registerRoutes(engine *gin.Engine, h *handlers) {
	engine.GET("/healthz", h.health)
	engine.GET("/readyz", h.ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		api.POST("/users", h.createUser)
		api.GET("/users", h.listUsers)
		api.GET("/users/:id", h.getUser)
		api.GET("/users/:id/crops", h.listUserCrops)

		api.POST("/crops", h.createCrop)
		api.GET("/crops", h.listActiveCrops)
		api.GET("/crops/:id", h.getCrop)
		api.PATCH("/crops/:id/status", h.updateCropStatus)
		api.DELETE("/crops/:id", h.deleteCrop)

		api.GET("/alerts", h.listAlerts)
		api.GET("/alerts/:id", h.getAlert)
		api.GET("/alerts/:id/notifications", h.listAlertNotifications)

		api.POST("/weather-check", h.runWeatherCheck)
		api.GET("/prescriptions", h.getPrescriptions)
		api.GET("/recommendations", h.getRecommendations)

		api.GET("/disasters", h.listDisasters)
		api.GET("/disasters/:id", h.getDisaster)
		api.POST("/disasters/locate", h.locateTyphoons)

		api.POST("/prices", h.recordPrice)
		api.GET("/prices", h.getPrices)
	}
}

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *handlers) ready(c *gin.Context) {
	if h.deps.Ready == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.deps.Ready.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
