package db

import (
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListRecipes returns the user's recipes, highest id first. Associations
// are not loaded.
func ListRecipes(tx *gorm.DB, userID uint64) ([]Recipe, error) {
	out := make([]Recipe, 0)
	if err := tx.Scopes(OwnedBy(userID)).Order("id DESC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list recipes")
	}
	return out, nil
}

// FindRecipe loads the user's recipe with its tags and ingredients, both
// ordered by id. Recipes of other users are ErrNotFound.
func FindRecipe(tx *gorm.DB, userID, id uint64) (*Recipe, error) {
	r := Recipe{}
	err := tx.Scopes(OwnedBy(userID)).
		Preload("Tags", orderByID).
		Preload("Ingredients", orderByID).
		Where("id = ?", id).
		Take(&r).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "find recipe")
	}
	return &r, nil
}

// CreateRecipe inserts the recipe row only; attach tags and ingredients
// with ReplaceAttrs.
func CreateRecipe(tx *gorm.DB, r *Recipe) error {
	if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
		return errors.Wrap(translate(err), "create recipe")
	}
	return nil
}

// SaveRecipe writes every column of an already loaded recipe; associations
// are left alone.
func SaveRecipe(tx *gorm.DB, r *Recipe) error {
	if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
		return errors.Wrap(translate(err), "save recipe")
	}
	return nil
}

func DeleteRecipe(tx *gorm.DB, userID, id uint64) error {
	r := Recipe{}
	if err := tx.Scopes(OwnedBy(userID)).Where("id = ?", id).Take(&r).Error; err != nil {
		return errors.Wrap(translate(err), "find recipe")
	}

	for _, p := range []AttrPolicy{TagPolicy, IngredientPolicy} {
		sql, args, err := squirrel.Delete(p.JoinTable).Where(squirrel.Eq{"recipe_id": r.ID}).ToSql()
		if err != nil {
			return errors.Wrap(err, "build sql")
		}
		if err := tx.Exec(sql, args...).Error; err != nil {
			return errors.Wrapf(err, "detach %s", p.Table)
		}
	}

	if err := tx.Delete(&r).Error; err != nil {
		return errors.Wrap(err, "delete recipe")
	}
	return nil
}
