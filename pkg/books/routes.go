package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/kasho/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all catalog routes. Reads are public; mutations
// require an authenticated user.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	books := e.Group("/books")

	books.GET("", h.list)
	books.GET("/:id", h.retrieve)

	books.POST("", h.create, authMiddleware.Authenticate)
	books.PATCH("/:id", h.update, authMiddleware.Authenticate)
	books.DELETE("/:id", h.delete, authMiddleware.Authenticate)

	return bookService
}
