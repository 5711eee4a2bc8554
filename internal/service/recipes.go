package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

const (
	maxLinkLength = 255
	// numeric(10,2)
	maxPriceDigits = 8
)

var maxPrice = decimal.New(1, maxPriceDigits)

type (
	Recipes struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	// RecipeInput is a create or update payload. A nil Tags or Ingredients
	// leaves that association set alone; an empty one clears it.
	RecipeInput struct {
		Title       *string
		TimeMinutes *int
		Price       *decimal.Decimal
		Description *string
		Link        *string
		Tags        *[]string
		Ingredients *[]string
	}
)

func NewRecipes(gdb *gorm.DB, l *zap.SugaredLogger) *Recipes {
	return &Recipes{
		db:     gdb,
		logger: l.Named("recipes"),
	}
}

// List returns the user's recipes, newest first, without associations.
func (s *Recipes) List(ctx context.Context, user *db.User) ([]db.Recipe, error) {
	return db.ListRecipes(s.db.WithContext(ctx), user.ID)
}

func (s *Recipes) Get(ctx context.Context, user *db.User, id uint64) (*db.Recipe, error) {
	return db.FindRecipe(s.db.WithContext(ctx), user.ID, id)
}

// Create stores a recipe owned by user and attaches the named tags and
// ingredients, creating the ones the user does not have yet.
func (s *Recipes) Create(ctx context.Context, user *db.User, in RecipeInput) (*db.Recipe, error) {
	in, err := cleanRecipe(in, true)
	if err != nil {
		return nil, err
	}

	r := &db.Recipe{UserID: user.ID}
	applyRecipe(r, in, true)

	var out *db.Recipe
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.CreateRecipe(tx, r); err != nil {
			return err
		}
		if err := reconcileAll(tx, r, in); err != nil {
			return err
		}

		loaded, err := db.FindRecipe(tx, user.ID, r.ID)
		out = loaded
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("recipe created", "user_id", user.ID, "recipe_id", out.ID)
	return out, nil
}

// Update changes the user's recipe. With full every scalar field is
// replaced (title, time_minutes and price become required); otherwise only
// the fields present in in are.
func (s *Recipes) Update(ctx context.Context, user *db.User, id uint64, in RecipeInput, full bool) (*db.Recipe, error) {
	in, err := cleanRecipe(in, full)
	if err != nil {
		return nil, err
	}

	var out *db.Recipe
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := db.FindRecipe(tx, user.ID, id)
		if err != nil {
			return err
		}

		applyRecipe(r, in, full)
		if err := db.SaveRecipe(tx, r); err != nil {
			return err
		}
		if err := reconcileAll(tx, r, in); err != nil {
			return err
		}

		loaded, err := db.FindRecipe(tx, user.ID, id)
		out = loaded
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Recipes) Delete(ctx context.Context, user *db.User, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return db.DeleteRecipe(tx, user.ID, id)
	})
}

func applyRecipe(r *db.Recipe, in RecipeInput, full bool) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		r.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		r.Price = *in.Price
	}

	switch {
	case in.Description != nil:
		r.Description = *in.Description
	case full:
		r.Description = ""
	}
	switch {
	case in.Link != nil:
		r.Link = *in.Link
	case full:
		r.Link = ""
	}
}

// cleanRecipe trims text fields and nested names and checks every rule
// before anything touches the database.
func cleanRecipe(in RecipeInput, full bool) (RecipeInput, error) {
	verr := &ValidationError{}

	if in.Title != nil {
		title := cleanName(verr, "title", *in.Title)
		in.Title = &title
	} else if full {
		verr.Add("title", "This field is required.")
	}

	if in.TimeMinutes != nil {
		if *in.TimeMinutes < 0 {
			verr.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
		}
	} else if full {
		verr.Add("time_minutes", "This field is required.")
	}

	if in.Price != nil {
		checkPrice(verr, *in.Price)
	} else if full {
		verr.Add("price", "This field is required.")
	}

	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if len([]rune(link)) > maxLinkLength {
			verr.Add("link", fmt.Sprintf("Ensure this field has no more than %d characters.", maxLinkLength))
		}
		in.Link = &link
	}

	in.Tags = cleanNames(verr, "tags", in.Tags)
	in.Ingredients = cleanNames(verr, "ingredients", in.Ingredients)

	return in, verr.Err()
}

func checkPrice(verr *ValidationError, price decimal.Decimal) {
	switch {
	case price.IsNegative():
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	case !price.Equal(price.Truncate(2)):
		verr.Add("price", "Ensure that there are no more than 2 decimal places.")
	case price.GreaterThanOrEqual(maxPrice):
		verr.Add("price", fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxPriceDigits))
	}
}

func cleanNames(verr *ValidationError, field string, names *[]string) *[]string {
	if names == nil {
		return nil
	}
	out := make([]string, len(*names))
	for i, name := range *names {
		out[i] = cleanName(verr, fmt.Sprintf("%s[%d].name", field, i), name)
	}
	return &out
}
