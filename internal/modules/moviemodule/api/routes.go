package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the movie endpoints under r. writeGuards run before
// every mutating handler.
func (h *Handler) RegisterRoutes(r gin.IRouter, writeGuards ...gin.HandlerFunc) {
	movies := r.Group("/movies")
	{
		movies.GET("", h.ListMovies)
		movies.GET("/:id", h.GetMovie)

		write := movies.Group("", writeGuards...)
		write.POST("", h.CreateMovie)
		write.PUT("/:id", h.ReplaceMovie)
		write.PATCH("/:id", h.UpdateMovie)
		write.DELETE("/:id", h.DeleteMovie)
	}
}
