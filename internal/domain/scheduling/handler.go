package scheduling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.CreateAppointment, auth.Require(auth.OpCreateAppointment))
	api.GET("/appointments", h.ListAppointments, auth.Require(auth.OpListAppointments))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), caller, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAppointments(c.Request().Context(), caller)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return httperr.BadRequest(err.Error())
	case errors.Is(err, ErrForbidden):
		return httperr.Forbidden("Not authorized")
	case errors.Is(err, ErrDoctorNotFound):
		return httperr.NotFound("Doctor not found")
	default:
		return patient.MapError(err)
	}
}
