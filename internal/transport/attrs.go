package transport

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

// attrHandler serves the CRUD routes of one owned attribute kind.
type attrHandler[T db.Attr] struct {
	svc *service.Attrs[T]
}

func (h *attrHandler[T]) routes(prefix string) []route {
	return []route{
		{method: http.MethodGet, path: prefix, handler: h.List},
		{method: http.MethodPost, path: prefix, handler: h.Create},
		{method: http.MethodPatch, path: prefix + "/:id", handler: h.Update},
		{method: http.MethodPut, path: prefix + "/:id", handler: h.Update},
		{method: http.MethodDelete, path: prefix + "/:id", handler: h.Delete},
	}
}

func newAttrResp[T db.Attr](v T) AttrResp {
	o := v.Owned()
	return AttrResp{ID: o.ID, Name: o.Name}
}

func (h *attrHandler[T]) List(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	assignedOnly, err := parseAssignedOnly(c.QueryParam("assigned_only"))
	if err != nil {
		return err
	}

	values, err := h.svc.List(c.Request().Context(), user, assignedOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAttrResps(values))
}

// Create answers 201 for a new row and 200 when the caller already had
// one with that name.
func (h *attrHandler[T]) Create(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := NameReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	v, created, err := h.svc.Create(c.Request().Context(), user, req.Name)
	if err != nil {
		return err
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return c.JSON(code, newAttrResp(v))
}

func (h *attrHandler[T]) Update(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := NameReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	v, err := h.svc.Rename(c.Request().Context(), user, id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAttrResp(*v))
}

func (h *attrHandler[T]) Delete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// parseAssignedOnly accepts booleans and integers; only true and 1 enable
// the filter.
func parseAssignedOnly(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n == 1, nil
	}
	return false, service.NewValidationError("assigned_only", "A valid integer is required.")
}
