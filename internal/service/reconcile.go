package service

import (
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

// reconcileAll applies the tag and ingredient lists present in in to r.
// It must run inside the transaction that wrote r.
func reconcileAll(tx *gorm.DB, r *db.Recipe, in RecipeInput) error {
	if in.Tags != nil {
		if err := reconcile[db.Tag](tx, db.TagPolicy, r, *in.Tags); err != nil {
			return err
		}
	}
	if in.Ingredients != nil {
		if err := reconcile[db.Ingredient](tx, db.IngredientPolicy, r, *in.Ingredients); err != nil {
			return err
		}
	}
	return nil
}

// reconcile resolves names to the recipe owner's rows of one kind, creating
// the missing ones, and makes them r's complete set of that kind. Repeated
// names collapse into one association.
func reconcile[T db.Attr](tx *gorm.DB, p db.AttrPolicy, r *db.Recipe, names []string) error {
	seen := make(map[string]struct{}, len(names))
	values := make([]T, 0, len(names))

	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		v, _, err := db.FindOrCreateAttr[T](tx, p, r.UserID, name)
		if err != nil {
			return err
		}
		values = append(values, v)
	}

	return db.ReplaceAttrs(tx, p, r, values)
}
