package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

const (
	userKey = "user"

	headerToken = "X-Token"
)

type (
	HTTPServer struct {
		users       *service.Users
		recipes     *service.Recipes
		tags        *attrHandler[db.Tag]
		ingredients *attrHandler[db.Ingredient]
		logger      *zap.SugaredLogger
	}

	route struct {
		method  string
		path    string
		handler echo.HandlerFunc
		// public routes skip AuthMiddleware
		public bool
	}
)

func NewHTTPServer(
	users *service.Users,
	recipes *service.Recipes,
	tags *service.Tags,
	ingredients *service.Ingredients,
	logger *zap.SugaredLogger,
) *HTTPServer {
	return &HTTPServer{
		users:       users,
		recipes:     recipes,
		tags:        &attrHandler[db.Tag]{svc: tags},
		ingredients: &attrHandler[db.Ingredient]{svc: ingredients},
		logger:      logger.Named("http"),
	}
}

// NewRouter wires every route of s into a fresh echo instance.
func NewRouter(s *HTTPServer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))
	if dump := bodyLogger(s.logger); dump != nil {
		e.Use(dump)
	}
	e.Use(middleware.CORS())

	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewErrorHandler(s.logger)

	for _, r := range s.routes() {
		if r.public {
			e.Add(r.method, r.path, r.handler)
			continue
		}
		e.Add(r.method, r.path, r.handler, s.AuthMiddleware)
	}

	return e
}

func (s *HTTPServer) routes() []route {
	routes := []route{
		{method: http.MethodGet, path: "/ping", handler: s.Ping, public: true},

		{method: http.MethodPost, path: "/users", handler: s.Register, public: true},
		{method: http.MethodPost, path: "/token", handler: s.Token, public: true},
		{method: http.MethodGet, path: "/users/me", handler: s.Me},
		{method: http.MethodPatch, path: "/users/me", handler: s.MeUpdate},
		{method: http.MethodPut, path: "/users/me", handler: s.MeUpdate},

		{method: http.MethodGet, path: "/recipes", handler: s.RecipeList},
		{method: http.MethodPost, path: "/recipes", handler: s.RecipeCreate},
		{method: http.MethodGet, path: "/recipes/:id", handler: s.RecipeGet},
		{method: http.MethodPatch, path: "/recipes/:id", handler: s.RecipeUpdate},
		{method: http.MethodPut, path: "/recipes/:id", handler: s.RecipeReplace},
		{method: http.MethodDelete, path: "/recipes/:id", handler: s.RecipeDelete},
	}
	routes = append(routes, s.tags.routes("/tags")...)
	routes = append(routes, s.ingredients.routes("/ingredients")...)
	return routes
}

// Serve runs e on the configured address for the lifetime of the app.
func Serve(lc fx.Lifecycle, cfg *config.Config, e *echo.Echo, logger *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.HTTPListen())
			if err != nil {
				return errors.Wrap(err, "failed to listen")
			}
			e.Listener = lis

			go func() {
				if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("HTTP server stopped", "error", err)
				}
			}()

			logger.Infow("HTTP server started", "addr", lis.Addr().String())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})
}

func (s *HTTPServer) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

// AuthMiddleware resolves the request token to its user. Both
// "Authorization: Token <key>" (or Bearer) and the X-Token header are
// accepted.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := requestToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		user, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(userKey, user)
		return next(c)
	}
}

func requestToken(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		scheme, key, ok := strings.Cut(auth, " ")
		if !ok {
			return ""
		}
		if strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(key)
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get(headerToken))
}

////////

func BindAndValidate(c echo.Context, v interface{}) error {
	req := c.Request()
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return errors.Wrap(err, "read body")
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	if err := c.Bind(v); err != nil {
		return bindError(err, body)
	}
	return c.Validate(v)
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get(userKey).(*db.User)
	if !ok || user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

// GetAndParseParam reads a numeric path param. Anything unparsable can not
// name a row, so it is reported as not found.
func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(service.ErrNotFound, "path param %q", name)
	}
	return v, nil
}
