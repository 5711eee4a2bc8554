package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

type (
	RegisterReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Name     string `json:"name" validate:"required"`
	}

	TokenReq struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	TokenResp struct {
		Token string `json:"token"`
	}

	// ProfileReq has no email: it can not be changed once registered.
	ProfileReq struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}

	UserResp struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
)

func newUserResp(u *db.User) UserResp {
	return UserResp{Email: u.Email, Name: u.Name}
}

func (s *HTTPServer) Register(c echo.Context) error {
	req := RegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.users.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newUserResp(user))
}

func (s *HTTPServer) Token(c echo.Context) error {
	req := TokenReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResp{Token: token})
}

func (s *HTTPServer) Me(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(user))
}

func (s *HTTPServer) MeUpdate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := ProfileReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err = s.users.UpdateProfile(c.Request().Context(), user, service.ProfileUpdate{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(user))
}
