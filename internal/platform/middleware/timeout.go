package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/platform/httperr"
)

// RequestTimeout puts a deadline on the request context. Storage calls made
// with that context abort once it passes, and a handler error caused by the
// deadline is reported as 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err == nil {
				return nil
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return httperr.New(http.StatusGatewayTimeout, httperr.CodeTimeout,
					"request processing exceeded the allowed time limit").SetInternal(err)
			}
			return err
		}
	}
}
