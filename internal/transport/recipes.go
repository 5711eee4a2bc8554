package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

type (
	NameReq struct {
		Name string `json:"name" validate:"required"`
	}

	// RecipeReq serves POST, PATCH and PUT. A missing tags or ingredients
	// key decodes to nil and leaves that set untouched; [] clears it.
	// Ownership is never read from the body.
	RecipeReq struct {
		Title       *string          `json:"title"`
		TimeMinutes *int             `json:"time_minutes"`
		Price       *decimal.Decimal `json:"price"`
		Description *string          `json:"description"`
		Link        *string          `json:"link"`
		Tags        *[]NameReq       `json:"tags" validate:"omitempty,dive"`
		Ingredients *[]NameReq       `json:"ingredients" validate:"omitempty,dive"`
	}

	AttrResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	RecipeResp struct {
		ID          uint64 `json:"id"`
		Title       string `json:"title"`
		TimeMinutes int    `json:"time_minutes"`
		Price       string `json:"price"`
		Link        string `json:"link"`
	}

	RecipeDetailResp struct {
		RecipeResp
		Description string     `json:"description"`
		Image       *string    `json:"image"`
		Tags        []AttrResp `json:"tags"`
		Ingredients []AttrResp `json:"ingredients"`
	}
)

func (r RecipeReq) input() service.RecipeInput {
	return service.RecipeInput{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Description: r.Description,
		Link:        r.Link,
		Tags:        names(r.Tags),
		Ingredients: names(r.Ingredients),
	}
}

func names(reqs *[]NameReq) *[]string {
	if reqs == nil {
		return nil
	}
	out := make([]string, len(*reqs))
	for i, r := range *reqs {
		out[i] = r.Name
	}
	return &out
}

func newRecipeResp(r *db.Recipe) RecipeResp {
	return RecipeResp{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
	}
}

func newRecipeDetailResp(r *db.Recipe) RecipeDetailResp {
	return RecipeDetailResp{
		RecipeResp:  newRecipeResp(r),
		Description: r.Description,
		Image:       r.Image,
		Tags:        newAttrResps(r.Tags),
		Ingredients: newAttrResps(r.Ingredients),
	}
}

func newAttrResps[T db.Attr](values []T) []AttrResp {
	out := make([]AttrResp, len(values))
	for i, v := range values {
		out[i] = newAttrResp(v)
	}
	return out
}

func (s *HTTPServer) RecipeList(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	recipes, err := s.recipes.List(c.Request().Context(), user)
	if err != nil {
		return err
	}

	resp := make([]RecipeResp, len(recipes))
	for i := range recipes {
		resp[i] = newRecipeResp(&recipes[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) RecipeGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	r, err := s.recipes.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecipeDetailResp(r))
}

func (s *HTTPServer) RecipeCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := RecipeReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := s.recipes.Create(c.Request().Context(), user, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newRecipeDetailResp(r))
}

func (s *HTTPServer) RecipeUpdate(c echo.Context) error {
	return s.recipeUpdate(c, false)
}

func (s *HTTPServer) RecipeReplace(c echo.Context) error {
	return s.recipeUpdate(c, true)
}

func (s *HTTPServer) recipeUpdate(c echo.Context, full bool) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := RecipeReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := s.recipes.Update(c.Request().Context(), user, id, req.input(), full)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecipeDetailResp(r))
}

func (s *HTTPServer) RecipeDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.recipes.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
