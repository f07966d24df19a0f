package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/httperr"
)

type Handler struct {
	svc    *Service
	issuer *auth.SessionIssuer
}

func NewHandler(svc *Service, issuer *auth.SessionIssuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

// RegisterRoutes mounts the account endpoints. /register and /login are
// public; the rest sit behind the bearer middleware on api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.GET("/me", h.Me)
	api.GET("/users", h.ListUsers, auth.Require(auth.OpListUsers))
	api.PUT("/users/:id/active", h.SetActive, auth.Require(auth.OpManageUsers))
	api.GET("/doctors", h.ListDoctors, auth.Require(auth.OpListDoctors))
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, RegisterResponse{Message: "User registered successfully", UserID: u.ID})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	u, err := h.svc.Verify(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	token, exp, err := h.issuer.Issue(u.ID.String(), u.Role)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		User:        u,
	})
}

func (h *Handler) Me(c echo.Context) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return httperr.Unauthorized("user not found")
	}
	u, err := h.svc.Resolve(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return httperr.Unauthorized("user not found")
	}
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.BadRequest("invalid id")
	}
	var req SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Active == nil {
		return httperr.BadRequest("active is required")
	}
	if err := h.svc.SetActive(c.Request().Context(), id, *req.Active); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "User updated successfully"})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return httperr.Unauthorized("Invalid credentials")
	case errors.Is(err, ErrDuplicateEmail):
		return httperr.New(http.StatusBadRequest, httperr.CodeConflict, "Email already registered")
	case errors.Is(err, ErrInvalidInput):
		return httperr.BadRequest(err.Error())
	case errors.Is(err, ErrNotFound):
		return httperr.NotFound("User not found")
	default:
		return httperr.Internal(err)
	}
}
