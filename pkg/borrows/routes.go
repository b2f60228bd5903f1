package borrows

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/kasho/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the borrow and return routes plus the member
// loan-history route. History is public; borrowing and returning require an
// authenticated user.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	borrowService := NewService(db)

	h := &handler{
		borrowService: borrowService,
	}

	borrows := e.Group("/borrows")
	borrows.POST("", h.create, authMiddleware.Authenticate)
	borrows.POST("/:id/return", h.returnBook, authMiddleware.Authenticate)

	e.GET("/members/:id/borrows", h.memberHistory)

	return borrowService
}
