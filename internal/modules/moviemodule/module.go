package moviemodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/api"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/service"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the movie module
	ModuleID = "catalog.movies"

	// ModuleName is the display name for the movie module
	ModuleName = "Movie Catalog"
)

// Module wires the movie store, service and HTTP handlers together
type Module struct {
	db      *gorm.DB
	service *service.MovieService
	handler *api.Handler
}

// NewModule creates the module on top of db. paging may be nil.
func NewModule(db *gorm.DB, paging api.PagingFunc) *Module {
	svc := service.NewMovieService(db)
	return &Module{
		db:      db,
		service: svc,
		handler: api.NewHandler(svc, paging),
	}
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Migrate performs database migrations
func (m *Module) Migrate() error {
	logger.Info("Migrating movie catalog schema")
	if err := models.Migrate(m.db); err != nil {
		return fmt.Errorf("failed to migrate movie models: %w", err)
	}
	return nil
}

// Service returns the movie service
func (m *Module) Service() *service.MovieService {
	return m.service
}

// RegisterRoutes mounts the movie endpoints under r
func (m *Module) RegisterRoutes(r gin.IRouter, writeGuards ...gin.HandlerFunc) {
	m.handler.RegisterRoutes(r, writeGuards...)
}
