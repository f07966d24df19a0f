package clinical

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/soap-notes", h.Create, auth.Require(auth.OpCreateNote))
	api.GET("/soap-notes/:patientId", h.ListForPatient, auth.Require(auth.OpReadNotes))
}

func (h *Handler) Create(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	n, err := h.svc.Create(c.Request().Context(), caller, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return httperr.NotFound("Patient not found")
	}
	notes, err := h.svc.ListForPatient(c.Request().Context(), caller, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, notes)
}

func mapError(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return httperr.BadRequest(err.Error())
	}
	return patient.MapError(err)
}
