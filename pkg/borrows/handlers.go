package borrows

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/kasho/pkg/errcodes"
)

type handler struct {
	borrowService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.borrowService.Borrow(ctx, params.BookID, params.MemberID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, record)
}

func (h *handler) returnBook(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow record")
	}

	// The return date is optional; a bare POST means "returned now".
	c.Set("disallow_empty_body", false)

	params := ReturnBorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.borrowService.Return(ctx, id, params.ReturnDate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (h *handler) memberHistory(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	records, err := h.borrowService.MemberHistory(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
