package transport

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/testutil"
)

func recipePath(id uint64) string {
	return fmt.Sprintf("/recipes/%d", id)
}

func attrNames(resps []AttrResp) []string {
	out := make([]string, len(resps))
	for i, r := range resps {
		out[i] = r.Name
	}
	return out
}

func TestRecipeList(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	other := testutil.NewUser(t, env.db, "other@example.com")
	first := testutil.NewRecipe(t, env.db, user, nil)
	second := testutil.NewRecipe(t, env.db, user, func(r *db.Recipe) { r.Title = "Second" })
	testutil.NewRecipe(t, env.db, other, nil)

	rec := env.do(http.MethodGet, "/recipes", *user.Token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]RecipeResp](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "5.22", got[1].Price)
}

func TestRecipeGet(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	r := testutil.NewRecipe(t, env.db, user, nil)
	tag := testutil.NewTag(t, env.db, user, "Dinner")
	ing := testutil.NewIngredient(t, env.db, user, "Salt")
	testutil.Attach(t, env.db, r, []db.Tag{tag}, []db.Ingredient{ing})

	rec := env.do(http.MethodGet, recipePath(r.ID), *user.Token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[RecipeDetailResp](t, rec)
	assert.Equal(t, "Sample Recipe Title", got.Title)
	assert.Equal(t, "Sample Description", got.Description)
	assert.Equal(t, []AttrResp{{ID: tag.ID, Name: "Dinner"}}, got.Tags)
	assert.Equal(t, []AttrResp{{ID: ing.ID, Name: "Salt"}}, got.Ingredients)
	assert.Nil(t, got.Image)
}

func TestRecipeGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	other := testutil.NewUser(t, env.db, "other@example.com")
	theirs := testutil.NewRecipe(t, env.db, other, nil)

	for _, path := range []string{recipePath(theirs.ID), recipePath(theirs.ID + 100), "/recipes/abc"} {
		rec := env.do(http.MethodGet, path, *user.Token, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Not found.", decode[DetailResp](t, rec).Detail, path)
	}
}

func TestRecipeCreate(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodPost, "/recipes", *user.Token, `{
		"title": "Chocolate cheesecake",
		"time_minutes": 30,
		"price": "5.99",
		"link": "http://example.com/cake"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[RecipeDetailResp](t, rec)
	assert.Equal(t, "5.99", got.Price)
	assert.Equal(t, "", got.Description)
	assert.Empty(t, got.Tags)

	stored, err := db.FindRecipe(env.db, user.ID, got.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("5.99")))
}

func TestRecipeCreate_NumericPrice(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodPost, "/recipes", *user.Token, `{"title": "Toast", "time_minutes": 2, "price": 1.5}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "1.50", decode[RecipeDetailResp](t, rec).Price)
}

func TestRecipeCreate_WithTags(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	indian := testutil.NewTag(t, env.db, user, "Indian")

	rec := env.do(http.MethodPost, "/recipes", *user.Token, map[string]interface{}{
		"title":        "Pongal",
		"time_minutes": 60,
		"price":        "4.50",
		"tags":         []map[string]string{{"name": "Indian"}, {"name": "Breakfast"}},
		"ingredients":  []map[string]string{{"name": "Rice"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[RecipeDetailResp](t, rec)
	assert.ElementsMatch(t, []string{"Indian", "Breakfast"}, attrNames(got.Tags))
	assert.Contains(t, got.Tags, AttrResp{ID: indian.ID, Name: "Indian"})
	assert.Equal(t, []string{"Rice"}, attrNames(got.Ingredients))
}

func TestRecipeCreate_Invalid(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	cases := map[string]struct {
		body  string
		field string
	}{
		"missing title":   {`{"time_minutes": 5, "price": "1.00"}`, "title"},
		"negative price":  {`{"title": "T", "time_minutes": 5, "price": "-1.00"}`, "price"},
		"blank tag name":  {`{"title": "T", "time_minutes": 5, "price": "1.00", "tags": [{"name": ""}]}`, "tags[0].name"},
		"tag without key": {`{"title": "T", "time_minutes": 5, "price": "1.00", "tags": [{"nom": "x"}]}`, "tags[0].name"},
		"wrong tags type": {`{"title": "T", "time_minutes": 5, "price": "1.00", "tags": "Dinner"}`, "tags"},
		"wrong time type": {`{"title": "T", "time_minutes": "soon", "price": "1.00"}`, "time_minutes"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/recipes", *user.Token, c.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decode[map[string][]string](t, rec), c.field)
		})
	}

	var n int64
	require.NoError(t, env.db.Model(&db.Recipe{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRecipeCreate_TypeErrors(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	cases := map[string]struct {
		body string
		want map[string][]string
	}{
		"tags not a list": {
			`{"title": "T", "time_minutes": 5, "price": "1.00", "tags": "Dinner"}`,
			map[string][]string{"tags": {"Incorrect type. Expected list, received string."}},
		},
		"nested name not a string": {
			`{"title": "T", "time_minutes": 5, "price": "1.00", "tags": [{"name": "ok"}, {"name": 5}]}`,
			map[string][]string{"tags[1].name": {"Incorrect type. Expected string, received number."}},
		},
		"time not an integer": {
			`{"title": "T", "time_minutes": "soon", "price": "1.00"}`,
			map[string][]string{"time_minutes": {"Incorrect type. Expected integer, received string."}},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/recipes", *user.Token, c.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, c.want, decode[map[string][]string](t, rec))
		})
	}
}

func TestRecipeUpdate_Partial(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	other := testutil.NewUser(t, env.db, "other@example.com")
	r := testutil.NewRecipe(t, env.db, user, nil)
	tag := testutil.NewTag(t, env.db, user, "Lunch")
	testutil.Attach(t, env.db, r, []db.Tag{tag}, nil)

	rec := env.do(http.MethodPatch, recipePath(r.ID), *user.Token, map[string]interface{}{
		"title": "New Title",
		"user":  other.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[RecipeDetailResp](t, rec)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, "Sample Description", got.Description)
	assert.Equal(t, []string{"Lunch"}, attrNames(got.Tags))

	stored, err := db.FindRecipe(env.db, user.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestRecipeUpdate_ClearTags(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	r := testutil.NewRecipe(t, env.db, user, nil)
	tag := testutil.NewTag(t, env.db, user, "Breakfast")
	testutil.Attach(t, env.db, r, []db.Tag{tag}, nil)

	rec := env.do(http.MethodPatch, recipePath(r.ID), *user.Token, `{"tags": []}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[RecipeDetailResp](t, rec).Tags)

	tags, err := db.ListAttrs[db.Tag](env.db, db.TagPolicy, user.ID, false)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestRecipeReplace(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	r := testutil.NewRecipe(t, env.db, user, nil)

	rec := env.do(http.MethodPut, recipePath(r.ID), *user.Token, map[string]interface{}{
		"title":        "Spaghetti carbonara",
		"time_minutes": 25,
		"price":        "5.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[RecipeDetailResp](t, rec)
	assert.Equal(t, "Spaghetti carbonara", got.Title)
	assert.Equal(t, 25, got.TimeMinutes)
	assert.Equal(t, "5.00", got.Price)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, "", got.Link)

	rec = env.do(http.MethodPut, recipePath(r.ID), *user.Token, `{"title": "Only title"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec), "price")
}

func TestRecipeDelete(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")
	other := testutil.NewUser(t, env.db, "other@example.com")
	mine := testutil.NewRecipe(t, env.db, user, nil)
	theirs := testutil.NewRecipe(t, env.db, other, nil)

	rec := env.do(http.MethodDelete, recipePath(theirs.ID), *user.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, recipePath(mine.ID), *user.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, recipePath(mine.ID), *user.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, recipePath(theirs.ID), *other.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecipeList_TrailingSlash(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db, "user@example.com")

	rec := env.do(http.MethodGet, "/recipes/", *user.Token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
