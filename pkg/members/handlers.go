package members

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/kasho/pkg/errcodes"
	"github.com/shishobooks/kasho/pkg/models"
)

type handler struct {
	memberService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateMemberPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	member, err := h.memberService.Create(ctx, CreateMemberOptions(params))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, member)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	member, err := h.memberService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, member)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListMembersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	members, total, err := h.memberService.List(ctx, ListOptions(params))
	if err != nil {
		return err
	}

	resp := struct {
		Members []*models.Member `json:"members"`
		Total   int              `json:"total"`
	}{members, total}

	return c.JSON(http.StatusOK, resp)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Member")
	}

	if err := h.memberService.Delete(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Member with id %d has been deleted successfully", id),
	})
}
