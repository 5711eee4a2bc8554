package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

type DetailResp struct {
	Detail string `json:"detail"`
}

// NewErrorHandler renders service errors the way clients expect them:
// validation failures as {field: [messages]}, everything else as
// {"detail": message}.
func NewErrorHandler(logger *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := errorResponse(err)
		if code == http.StatusInternalServerError {
			logger.Errorw("request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"error", err,
			)
		}
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Errorw("write error response", "error", err)
		}
	}
}

func errorResponse(err error) (int, interface{}) {
	var (
		verr    *service.ValidationError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Fields
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, DetailResp{Detail: "Invalid token."}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, DetailResp{Detail: "Not found."}
	case errors.As(err, &httpErr):
		return httpErr.Code, DetailResp{Detail: fmt.Sprint(httpErr.Message)}
	}
	return http.StatusInternalServerError, DetailResp{Detail: "internal server error"}
}

// bindError turns a body decoding failure into a validation error keyed by
// the JSON path of the offending value.
func bindError(err error, body []byte) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		field := jsonPath(body, ute.Offset)
		if field == "" {
			field = ute.Field
		}
		return service.NewValidationError(field, fmt.Sprintf("Incorrect type. Expected %s, received %s.", jsonKind(ute.Type), ute.Value))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
		return httpErr
	}
	return service.NewValidationError(service.NonFieldErrors, "Malformed request body.")
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	}
	return "object"
}

type jsonFrame struct {
	array   bool
	keyNext bool
	key     string
	index   int
}

// jsonPath returns the path of the value in body that ends at offset, like
// "tags[1].name", or "" when no value does.
func jsonPath(body []byte, offset int64) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	var stack []*jsonFrame

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return ""
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			continue
		}

		var top *jsonFrame
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}
		if top != nil && !top.array && top.keyNext {
			top.key, _ = tok.(string)
			top.keyNext = false
			continue
		}
		if top != nil {
			if top.array {
				top.index++
			} else {
				top.keyNext = true
			}
		}

		if offset > start && offset <= dec.InputOffset() {
			return framePath(stack)
		}
		if d, ok := tok.(json.Delim); ok {
			stack = append(stack, &jsonFrame{array: d == '[', keyNext: d == '{', index: -1})
		}
	}
}

func framePath(stack []*jsonFrame) string {
	var b strings.Builder
	for _, f := range stack {
		if f.array {
			fmt.Fprintf(&b, "[%d]", f.index)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.key)
	}
	return b.String()
}
