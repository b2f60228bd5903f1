package members

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/kasho/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all member registry routes. Reads are public;
// mutations require an authenticated user.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	memberService := NewService(db)

	h := &handler{
		memberService: memberService,
	}

	members := e.Group("/members")

	members.GET("", h.list)
	members.GET("/:id", h.retrieve)

	members.POST("", h.create, authMiddleware.Authenticate)
	members.DELETE("/:id", h.delete, authMiddleware.Authenticate)

	return memberService
}
