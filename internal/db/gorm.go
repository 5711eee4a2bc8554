package db

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
)

var Module = fx.Provide(NewGormClient)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email       string  `gorm:"size:255;unique;not null"`
		Name        string  `gorm:"size:255;not null"`
		Password    string  `gorm:"not null"`
		Token       *string `gorm:"size:64;uniqueIndex"`
		IsActive    bool    `gorm:"not null;default:true"`
		IsStaff     bool    `gorm:"not null;default:false"`
		IsSuperuser bool    `gorm:"not null;default:false"`
	}

	Recipe struct {
		GormForkedModel
		UserID      uint64          `gorm:"not null;index"`
		User        *User           `gorm:"constraint:OnDelete:CASCADE"`
		Title       string          `gorm:"size:255;not null"`
		TimeMinutes int             `gorm:"not null"`
		Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
		Description string          `gorm:"type:text;not null;default:''"`
		Link        string          `gorm:"size:255;not null;default:''"`
		Image       *string         `gorm:"size:255"`
		Tags        []Tag           `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
		Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients;constraint:OnDelete:CASCADE"`
	}

	Tag struct {
		GormForkedModel
		UserID uint64 `gorm:"not null;uniqueIndex:uidx_tags_user_id_name"`
		User   *User  `gorm:"constraint:OnDelete:CASCADE"`
		Name   string `gorm:"size:255;not null;uniqueIndex:uidx_tags_user_id_name"`
	}

	Ingredient struct {
		GormForkedModel
		UserID uint64 `gorm:"not null;uniqueIndex:uidx_ingredients_user_id_name"`
		User   *User  `gorm:"constraint:OnDelete:CASCADE"`
		Name   string `gorm:"size:255;not null;uniqueIndex:uidx_ingredients_user_id_name"`
	}
)

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DBSQLitePath + "?_pragma=foreign_keys(1)")
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := Open(dialector, NewGormLogger(l))
	if err != nil {
		return nil, err
	}

	l.Infow("database ready", "driver", cfg.DBDriver)
	return db, nil
}

// Open connects through the dialector and migrates the schema.
func Open(dialector gorm.Dialector, gl logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gl,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := db.AutoMigrate(&Ingredient{}); err != nil {
		return errors.Wrap(err, "migrate ingredient")
	}
	if err := db.AutoMigrate(&Recipe{}); err != nil {
		return errors.Wrap(err, "migrate recipe")
	}
	return nil
}
