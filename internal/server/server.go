package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/config"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/middleware"
	"github.com/mantonx/moviedb/internal/modules/moviemodule"
	movieapi "github.com/mantonx/moviedb/internal/modules/moviemodule/api"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
	"github.com/mantonx/moviedb/internal/server/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// RouterOptions supplies the live settings the routes read per request.
// Nil fields fall back to the global configuration.
type RouterOptions struct {
	Security middleware.SecurityFunc
	Paging   movieapi.PagingFunc
}

// ConfigPaging reads page size bounds from the global configuration.
func ConfigPaging() filters.Paging {
	cfg := config.Get().API
	return filters.Paging{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}
}

// SetupRouter configures and returns the main router
func SetupRouter(db *gorm.DB, opts RouterOptions) *gin.Engine {
	if opts.Security == nil {
		opts.Security = middleware.ConfigSecurity
	}
	if opts.Paging == nil {
		opts.Paging = ConfigPaging
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		api.ErrorMiddleware(),
		middleware.Metrics(),
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
		cors(),
	)
	r.NoRoute(api.NoRoute)

	health := handlers.NewHealthHandler(db)
	r.GET("/api/health", health.HandleHealthCheck)
	r.GET("/api/health/db", health.HandleDBStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	movies := moviemodule.NewModule(db, opts.Paging)
	movies.RegisterRoutes(r.Group("/api/v1"), middleware.RequireWriteAccess(opts.Security))

	return r
}

// cors allows browser clients on other origins
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Server is the HTTP front of the catalog
type Server struct {
	httpServer *http.Server
}

// New builds a server listening on the configured address
func New(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting moviedb server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("Server shutdown complete")
	return nil
}
