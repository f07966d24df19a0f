// Package httperr renders every failure as a status code plus a
// {"code","message"} body.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Error codes carried in the response body.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "INSUFFICIENT_PERMISSIONS"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeIllegalTransition  = "ILLEGAL_TRANSITION"
	CodeRateLimited        = "RATE_LIMITED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// Response is the JSON error body.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New returns an echo error whose body carries an explicit code.
func New(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, Response{Code: code, Message: message})
}

func Unauthorized(message string) *echo.HTTPError {
	return New(http.StatusUnauthorized, CodeUnauthenticated, message)
}

func Forbidden(message string) *echo.HTTPError {
	return New(http.StatusForbidden, CodeForbidden, message)
}

func NotFound(message string) *echo.HTTPError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func BadRequest(message string) *echo.HTTPError {
	return New(http.StatusBadRequest, CodeValidation, message)
}

// Internal wraps err as a 500 whose cause is logged but not returned.
func Internal(err error) *echo.HTTPError {
	return New(http.StatusInternalServerError, CodeInternal, "internal server error").SetInternal(err)
}

// CodeForStatus picks the default code for a status.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return CodeTimeout
	default:
		if status >= 500 {
			return CodeInternal
		}
		return CodeValidation
	}
}

// Resolve converts any error into a status and body.
func Resolve(err error) (int, Response) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return http.StatusInternalServerError, Response{Code: CodeInternal, Message: "internal server error"}
	}

	status := he.Code
	switch m := he.Message.(type) {
	case Response:
		return status, m
	case string:
		return status, Response{Code: CodeForStatus(status), Message: m}
	case error:
		return status, Response{Code: CodeForStatus(status), Message: m.Error()}
	default:
		msg := http.StatusText(status)
		if m != nil {
			msg = fmt.Sprint(m)
		}
		return status, Response{Code: CodeForStatus(status), Message: msg}
	}
}

// Handler returns an echo.HTTPErrorHandler that writes Resolve's result and
// logs server-side failures.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Resolve(err)
		if status >= 500 {
			cause := err
			var he *echo.HTTPError
			if errors.As(err, &he) && he.Internal != nil {
				cause = he.Internal
			}
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(cause).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
