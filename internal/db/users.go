package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func CreateUser(tx *gorm.DB, u *User) error {
	if err := tx.Create(u).Error; err != nil {
		return errors.Wrap(translate(err), "create user")
	}
	return nil
}

// EmailTaken compares emails exactly; callers normalize first.
func EmailTaken(tx *gorm.DB, email string) (bool, error) {
	var n int64
	if err := tx.Model(&User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "count users by email")
	}
	return n > 0, nil
}

func FindUserByEmail(tx *gorm.DB, email string) (*User, error) {
	u := User{}
	if err := tx.Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, errors.Wrap(translate(err), "find user by email")
	}
	return &u, nil
}

func FindUserByToken(tx *gorm.DB, token string) (*User, error) {
	u := User{}
	if err := tx.Where("token = ?", token).Take(&u).Error; err != nil {
		return nil, errors.Wrap(translate(err), "find user by token")
	}
	return &u, nil
}

// UpdateUser writes the given columns of u; the primary key must be set.
func UpdateUser(tx *gorm.DB, u *User, columns ...string) error {
	if err := tx.Model(u).Select(columns).Updates(u).Error; err != nil {
		return errors.Wrap(translate(err), "update user")
	}
	return nil
}
