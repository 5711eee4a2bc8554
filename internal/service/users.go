package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

const (
	MinPasswordLength = 5
	// bcrypt refuses longer input
	maxPasswordBytes = 72

	msgBadCredentials = "Unable to authenticate with provided credentials."
	msgEmailTaken     = "user with this email already exists."
)

type (
	Users struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
		cost   int
	}

	RegisterInput struct {
		Email    string
		Password string
		Name     string
	}

	// ProfileUpdate changes only the non-nil fields.
	ProfileUpdate struct {
		Name     *string
		Password *string
	}
)

func NewUsers(gdb *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) *Users {
	return &Users{
		db:     gdb,
		logger: l.Named("users"),
		cost:   cfg.BcryptCost,
	}
}

// NormalizeEmail lower-cases the domain part and keeps the local part as
// given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (s *Users) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	verr := &ValidationError{}
	email := NormalizeEmail(in.Email)
	if email == "" {
		verr.Add("email", "This field may not be blank.")
	}
	checkPassword(verr, in.Password)
	name := cleanName(verr, "name", in.Name)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx)
	taken, err := db.EmailTaken(tx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("email", msgEmailTaken)
	}

	hash, err := s.bcryptGen(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}

	user := &db.User{
		Email:    email,
		Name:     name,
		Password: hash,
		IsActive: true,
	}
	if err := db.CreateUser(tx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, NewValidationError("email", msgEmailTaken)
		}
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and returns the user's token, issuing one on
// first use. Every failure is reported the same way so callers cannot probe
// which emails exist.
func (s *Users) Login(ctx context.Context, email, password string) (string, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(email) == "" {
		verr.Add("email", "This field may not be blank.")
	}
	if password == "" {
		verr.Add("password", "This field may not be blank.")
	}
	if err := verr.Err(); err != nil {
		return "", err
	}

	tx := s.db.WithContext(ctx)
	user, err := db.FindUserByEmail(tx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", NewValidationError(NonFieldErrors, msgBadCredentials)
		}
		return "", err
	}

	if err := s.bcryptCheck(user.Password, password); err != nil || !user.IsActive {
		return "", NewValidationError(NonFieldErrors, msgBadCredentials)
	}

	if user.Token != nil {
		return *user.Token, nil
	}

	token := uuid.New().String()
	user.Token = &token
	if err := db.UpdateUser(tx, user, "token"); err != nil {
		return "", errors.Wrap(err, "update token")
	}

	s.logger.Infow("token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a bearer token to its active user.
func (s *Users) Authenticate(ctx context.Context, token string) (*db.User, error) {
	if token == "" {
		return nil, errors.Wrap(ErrUnauthenticated, "no token")
	}

	user, err := db.FindUserByToken(s.db.WithContext(ctx), token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errors.Wrap(ErrUnauthenticated, "invalid token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.Wrap(ErrUnauthenticated, "user inactive or deleted")
	}
	return user, nil
}

func (s *Users) UpdateProfile(ctx context.Context, user *db.User, in ProfileUpdate) (*db.User, error) {
	verr := &ValidationError{}
	var (
		columns []string
		name    string
	)

	if in.Name != nil {
		name = cleanName(verr, "name", *in.Name)
	}
	if in.Password != nil {
		checkPassword(verr, *in.Password)
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = name
		columns = append(columns, "name")
	}

	if in.Password != nil {
		hash, err := s.bcryptGen(*in.Password)
		if err != nil {
			return nil, errors.Wrap(err, "bcryptGen")
		}
		user.Password = hash
		columns = append(columns, "password")
	}

	if len(columns) == 0 {
		return user, nil
	}
	if err := db.UpdateUser(s.db.WithContext(ctx), user, columns...); err != nil {
		return nil, err
	}
	return user, nil
}

func checkPassword(verr *ValidationError, password string) {
	switch {
	case password == "":
		verr.Add("password", "This field may not be blank.")
	case len([]rune(password)) < MinPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	case len(password) > maxPasswordBytes:
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordBytes))
	}
}

func (s *Users) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Users) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
