package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Recovery turns a panicking handler into a 500. The log entry carries the
// enrollment session the request was addressed to, when the route has one.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				rid, _ := c.Get("request_id").(string)
				evt := logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("route", c.Path())
				if id := sessionID(c); id != "" {
					evt = evt.Str("session_id", id)
				}
				if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
					evt = evt.Str("trace_id", sc.TraceID().String())
				}
				evt.
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}

// sessionID returns the :id path parameter of enrollment routes.
func sessionID(c echo.Context) string {
	if !strings.Contains(c.Path(), "/enrollments/:id") {
		return ""
	}
	for i, name := range c.ParamNames() {
		if name == "id" && i < len(c.ParamValues()) {
			return c.ParamValues()[i]
		}
	}
	return ""
}
