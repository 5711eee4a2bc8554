package transport

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const censored = "$censored"

var censoredFields = []string{"password"}

func requestLogger(logger *zap.SugaredLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			logger.Infow("request", fields...)
			return nil
		},
	})
}

// bodyLogger dumps request bodies at debug level with secrets censored.
// It returns nil when debug logging is off.
func bodyLogger(logger *zap.SugaredLogger) echo.MiddlewareFunc {
	if !logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		return nil
	}
	return middleware.BodyDump(func(c echo.Context, reqBody, _ []byte) {
		if len(reqBody) == 0 {
			return
		}
		logger.Debugw("request body", "method", c.Request().Method, "path", c.Path(), "body", string(censorBody(reqBody)))
	})
}

// censorBody replaces secret fields of a JSON object. Anything that is not
// a JSON object is returned unchanged.
func censorBody(body []byte) []byte {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}

	changed := false
	for _, field := range censoredFields {
		if _, ok := m[field]; ok {
			m[field] = json.RawMessage(`"` + censored + `"`)
			changed = true
		}
	}
	if !changed {
		return body
	}

	out, err := json.Marshal(m)
	if err != nil {
		return body
	}
	return out
}
