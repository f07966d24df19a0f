package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// ErrIdentityNotFound is returned by an IdentityResolver when the token's
// subject no longer exists or has been deactivated.
var ErrIdentityNotFound = errors.New("user not found")

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

// IdentityResolver re-fetches the current identity behind a verified token.
type IdentityResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (*Principal, error)
}

// Authenticate returns middleware that turns a bearer token into a Principal.
// Every failure is a 401 and happens before any policy check. Requests for
// which skipper returns true pass through untouched.
func Authenticate(issuer *SessionIssuer, resolver IdentityResolver, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			p, err := resolver.ResolvePrincipal(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, ErrIdentityNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				return fmt.Errorf("resolve session identity: %w", err)
			}

			c.Set("user_id", p.UserID)
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// MustPrincipal returns the caller or a 401 error for handlers mounted behind
// Authenticate.
func MustPrincipal(c echo.Context) (*Principal, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return p, nil
}
