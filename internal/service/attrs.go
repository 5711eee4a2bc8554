package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

// Attrs manages one kind of user-owned recipe attribute (tags or
// ingredients).
type Attrs[T db.Attr] struct {
	db     *gorm.DB
	policy db.AttrPolicy
	logger *zap.SugaredLogger
}

type (
	Tags        = Attrs[db.Tag]
	Ingredients = Attrs[db.Ingredient]
)

func NewTags(gdb *gorm.DB, l *zap.SugaredLogger) *Tags {
	return &Tags{db: gdb, policy: db.TagPolicy, logger: l.Named("tags")}
}

func NewIngredients(gdb *gorm.DB, l *zap.SugaredLogger) *Ingredients {
	return &Ingredients{db: gdb, policy: db.IngredientPolicy, logger: l.Named("ingredients")}
}

// Kind is the singular name of the attribute, "tag" or "ingredient".
func (s *Attrs[T]) Kind() string {
	return s.policy.Kind
}

// List is ordered by name descending. assignedOnly keeps only the rows used
// by at least one of the user's recipes.
func (s *Attrs[T]) List(ctx context.Context, user *db.User, assignedOnly bool) ([]T, error) {
	return db.ListAttrs[T](s.db.WithContext(ctx), s.policy, user.ID, assignedOnly)
}

// Create returns the user's existing row when the name is already taken;
// created reports whether a new row was stored.
func (s *Attrs[T]) Create(ctx context.Context, user *db.User, name string) (out T, created bool, err error) {
	verr := &ValidationError{}
	name = cleanName(verr, "name", name)
	if err := verr.Err(); err != nil {
		return out, false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, created, err = db.FindOrCreateAttr[T](tx, s.policy, user.ID, name)
		return err
	})
	if err == nil && created {
		s.logger.Debugw("created", "kind", s.Kind(), "user_id", user.ID, "id", out.Owned().ID)
	}
	return out, created, err
}

func (s *Attrs[T]) Rename(ctx context.Context, user *db.User, id uint64, name string) (*T, error) {
	verr := &ValidationError{}
	name = cleanName(verr, "name", name)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	var out *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := db.FindAttr[T](tx, s.policy, user.ID, id); err != nil {
			return err
		}

		clash, err := db.FindAttrByName[T](tx, s.policy, user.ID, name)
		switch {
		case err == nil && (*clash).Owned().ID != id:
			return s.nameTaken()
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return err
		}

		out, err = db.RenameAttr[T](tx, s.policy, user.ID, id, name)
		if errors.Is(err, db.ErrDuplicate) {
			return s.nameTaken()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete also detaches the row from the user's recipes.
func (s *Attrs[T]) Delete(ctx context.Context, user *db.User, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return db.DeleteAttr[T](tx, s.policy, user.ID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debugw("deleted", "kind", s.Kind(), "user_id", user.ID, "id", id)
	return nil
}

func (s *Attrs[T]) nameTaken() error {
	return NewValidationError("name", fmt.Sprintf("%s with this name already exists.", s.Kind()))
}
