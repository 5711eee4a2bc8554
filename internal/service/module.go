package service

import (
	"go.uber.org/fx"
)

var (
	Module = fx.Provide(
		NewUsers,
		NewRecipes,
		NewTags,
		NewIngredients,
	)
)
