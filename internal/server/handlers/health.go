// Package handlers contains the service level HTTP handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/database"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/repository"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// dbCheckTimeout bounds the database probe.
const dbCheckTimeout = 2 * time.Second

// HealthHandler reports process, host and database health
type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// HandleHealthCheck handles GET /api/health
// Host figures are best effort and omitted where the platform has none.
func (h *HealthHandler) HandleHealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	host := gin.H{}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		host["memory_used_percent"] = vm.UsedPercent
		host["memory_available_bytes"] = vm.Available
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		host["load1"] = avg.Load1
		host["load5"] = avg.Load5
		host["load15"] = avg.Load15
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "moviedb",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"host":    host,
	})
}

// HandleDBStatus handles GET /api/health/db
func (h *HealthHandler) HandleDBStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dbCheckTimeout)
	defer cancel()

	latency, err := database.Ping(ctx, h.db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "Database ping failed: " + err.Error(),
		})
		return
	}

	resp := gin.H{
		"status":  "connected",
		"dialect": h.db.Dialector.Name(),
		"latency": latency.String(),
	}

	movieRepo := repository.NewMovieRepository(h.db)
	if n, err := movieRepo.Count(ctx); err == nil {
		resp["movies"] = n
	}
	if n, err := movieRepo.CountLinks(ctx); err == nil {
		resp["category_links"] = n
	}
	if n, err := repository.NewCategoryRepository(h.db).Count(ctx); err == nil {
		resp["categories"] = n
	}
	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		resp["connection_pool"] = gin.H{
			"open_connections":     stats.OpenConnections,
			"max_open_connections": stats.MaxOpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
		}
	}
	c.JSON(http.StatusOK, resp)
}
