package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps gorm's sentinels onto the package ones so callers above
// this package never import gorm for error checks.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// OwnedBy restricts a single-table query to rows owned by userID.
func OwnedBy(userID uint64) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	}
}

func orderByID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}
