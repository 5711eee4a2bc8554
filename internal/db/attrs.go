package db

import (
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// Attr is a named record owned by one user and attachable to recipes.
	Attr interface {
		Tag | Ingredient
		Owned() Owned
	}

	Owned struct {
		ID     uint64
		UserID uint64
		Name   string
	}

	// AttrPolicy names the tables behind one Attr kind.
	AttrPolicy struct {
		Kind        string
		Table       string
		JoinTable   string
		JoinColumn  string
		Association string
	}
)

var (
	TagPolicy = AttrPolicy{
		Kind:        "tag",
		Table:       "tags",
		JoinTable:   "recipe_tags",
		JoinColumn:  "tag_id",
		Association: "Tags",
	}
	IngredientPolicy = AttrPolicy{
		Kind:        "ingredient",
		Table:       "ingredients",
		JoinTable:   "recipe_ingredients",
		JoinColumn:  "ingredient_id",
		Association: "Ingredients",
	}
)

func (t Tag) Owned() Owned {
	return Owned{ID: t.ID, UserID: t.UserID, Name: t.Name}
}

func (i Ingredient) Owned() Owned {
	return Owned{ID: i.ID, UserID: i.UserID, Name: i.Name}
}

func newAttr[T Attr](userID uint64, name string) T {
	var out T
	switch v := any(&out).(type) {
	case *Tag:
		v.UserID, v.Name = userID, name
	case *Ingredient:
		v.UserID, v.Name = userID, name
	}
	return out
}

// ListAttrs returns the user's rows ordered by name descending, ties by id
// descending, without timestamps. With assignedOnly only rows attached to
// at least one of the user's recipes are returned, each exactly once.
func ListAttrs[T Attr](tx *gorm.DB, p AttrPolicy, userID uint64, assignedOnly bool) ([]T, error) {
	q := squirrel.
		Select("t.id", "t.user_id", "t.name").
		From(p.Table + " t").
		Where(squirrel.Eq{"t.user_id": userID}).
		OrderBy("t.name DESC", "t.id DESC")
	if assignedOnly {
		q = q.Distinct().
			Join(p.JoinTable + " j ON j." + p.JoinColumn + " = t.id").
			Join("recipes r ON r.id = j.recipe_id").
			Where(squirrel.Eq{"r.user_id": userID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	out := make([]T, 0)
	if err := tx.Raw(sql, args...).Scan(&out).Error; err != nil {
		return nil, errors.Wrapf(err, "list %s", p.Table)
	}
	return out, nil
}

// FindAttr returns ErrNotFound for ids owned by someone else.
func FindAttr[T Attr](tx *gorm.DB, p AttrPolicy, userID, id uint64) (*T, error) {
	var out T
	if err := tx.Scopes(OwnedBy(userID)).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "find %s", p.Kind)
	}
	return &out, nil
}

func FindAttrByName[T Attr](tx *gorm.DB, p AttrPolicy, userID uint64, name string) (*T, error) {
	var out T
	if err := tx.Scopes(OwnedBy(userID)).Where("name = ?", name).Take(&out).Error; err != nil {
		return nil, errors.Wrapf(translate(err), "find %s by name", p.Kind)
	}
	return &out, nil
}

// FindOrCreateAttr reuses the user's row named name or inserts it. The
// insert skips on a (user_id, name) conflict and re-reads, so concurrent
// creators of one name end up sharing a single row.
func FindOrCreateAttr[T Attr](tx *gorm.DB, p AttrPolicy, userID uint64, name string) (T, bool, error) {
	found, err := FindAttrByName[T](tx, p, userID, name)
	if err == nil {
		return *found, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return *new(T), false, err
	}

	created := newAttr[T](userID, name)
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&created)
	if res.Error != nil {
		return *new(T), false, errors.Wrapf(translate(res.Error), "create %s", p.Kind)
	}
	if res.RowsAffected == 0 {
		found, err := FindAttrByName[T](tx, p, userID, name)
		if err != nil {
			return *new(T), false, err
		}
		return *found, false, nil
	}
	return created, true, nil
}

func RenameAttr[T Attr](tx *gorm.DB, p AttrPolicy, userID, id uint64, name string) (*T, error) {
	res := tx.Model(new(T)).Scopes(OwnedBy(userID)).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, errors.Wrapf(translate(res.Error), "rename %s", p.Kind)
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrapf(ErrNotFound, "rename %s", p.Kind)
	}
	return FindAttr[T](tx, p, userID, id)
}

// DeleteAttr detaches the row from every recipe before removing it.
func DeleteAttr[T Attr](tx *gorm.DB, p AttrPolicy, userID, id uint64) error {
	found, err := FindAttr[T](tx, p, userID, id)
	if err != nil {
		return err
	}

	sql, args, err := squirrel.Delete(p.JoinTable).Where(squirrel.Eq{p.JoinColumn: id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}
	if err := tx.Exec(sql, args...).Error; err != nil {
		return errors.Wrapf(err, "detach %s", p.Kind)
	}

	if err := tx.Delete(found).Error; err != nil {
		return errors.Wrapf(err, "delete %s", p.Kind)
	}
	return nil
}

// ReplaceAttrs makes values the complete set of p-kind rows attached to r.
func ReplaceAttrs[T Attr](tx *gorm.DB, p AttrPolicy, r *Recipe, values []T) error {
	assoc := tx.Model(r).Association(p.Association)
	if assoc.Error != nil {
		return errors.Wrapf(assoc.Error, "association %s", p.Association)
	}

	var err error
	if len(values) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(values)
	}
	if err != nil {
		return errors.Wrapf(err, "replace %s", p.Association)
	}
	return nil
}
