// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

const Password = "testpass123"

// NewDB returns a migrated in-memory sqlite database private to the test.
// It is capped at one connection, so code under test must run every query
// of a transaction on the transaction handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(sqlite.Open(dsn), logger.Discard)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

// NewUser stores an active user with Password and a fresh token.
func NewUser(t testing.TB, gdb *gorm.DB, email string) *db.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	token := uuid.NewString()
	u := &db.User{
		Email:    email,
		Name:     "Test User",
		Password: string(hash),
		Token:    &token,
		IsActive: true,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// NewRecipe stores a recipe for the user with sample defaults; fn may
// tweak it before insert.
func NewRecipe(t testing.TB, gdb *gorm.DB, user *db.User, fn func(r *db.Recipe)) *db.Recipe {
	t.Helper()

	r := &db.Recipe{
		UserID:      user.ID,
		Title:       "Sample Recipe Title",
		TimeMinutes: 22,
		Price:       decimal.RequireFromString("5.22"),
		Description: "Sample Description",
		Link:        "http://example.com/recipe.pdf",
	}
	if fn != nil {
		fn(r)
	}
	require.NoError(t, db.CreateRecipe(gdb, r))
	return r
}

func NewTag(t testing.TB, gdb *gorm.DB, user *db.User, name string) db.Tag {
	t.Helper()

	tag, _, err := db.FindOrCreateAttr[db.Tag](gdb, db.TagPolicy, user.ID, name)
	require.NoError(t, err)
	return tag
}

func NewIngredient(t testing.TB, gdb *gorm.DB, user *db.User, name string) db.Ingredient {
	t.Helper()

	ing, _, err := db.FindOrCreateAttr[db.Ingredient](gdb, db.IngredientPolicy, user.ID, name)
	require.NoError(t, err)
	return ing
}

// Attach adds the tags and ingredients to the recipe's existing sets.
func Attach(t testing.TB, gdb *gorm.DB, r *db.Recipe, tags []db.Tag, ingredients []db.Ingredient) {
	t.Helper()

	if len(tags) > 0 {
		require.NoError(t, gdb.Model(r).Association("Tags").Append(tags))
	}
	if len(ingredients) > 0 {
		require.NoError(t, gdb.Model(r).Association("Ingredients").Append(ingredients))
	}
}
