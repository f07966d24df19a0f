package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	api.POST("/patients", h.Create, auth.Require(auth.OpCreatePatient))
	api.GET("/patients", h.List, auth.Require(auth.OpListPatients))
	api.GET("/patients/:id", h.Get, auth.Require(auth.OpReadPatient))
	api.PUT("/patients/:id/status", h.UpdateStatus, auth.Require(auth.OpUpdatePatient))
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
	createdBy, err := uuid.Parse(caller.UserID)
	if err != nil {
		return httperr.Unauthorized("invalid session subject")
	}
	p, err := h.svc.Create(c.Request().Context(), req, createdBy)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	patients, err := h.svc.List(c.Request().Context(), caller)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) Get(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.NotFound("Patient not found")
	}
	p, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateStatus reads status and assigned_doctor_id from the query string,
// falling back to a JSON body.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.NotFound("Patient not found")
	}

	var req UpdateStatusRequest
	if c.Request().ContentLength != 0 {
		if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
			return httperr.BadRequest("invalid request body")
		}
	}
	if q := c.QueryParam("status"); q != "" {
		req.Status = q
	}
	if q := c.QueryParam("assigned_doctor_id"); q != "" {
		req.AssignedDoctorID = q
	}

	status, err := ParseStatus(req.Status)
	if err != nil {
		return MapError(err)
	}
	var doctorID *uuid.UUID
	if req.AssignedDoctorID != "" {
		d, err := uuid.Parse(req.AssignedDoctorID)
		if err != nil {
			return httperr.BadRequest("invalid assigned_doctor_id")
		}
		doctorID = &d
	}

	if err := h.svc.UpdateStatus(c.Request().Context(), id, status, doctorID); err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient status updated successfully"})
}

// MapError converts patient errors to HTTP errors.
func MapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return httperr.NotFound("Patient not found")
	case errors.Is(err, ErrForbidden):
		return httperr.Forbidden("Not authorized")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidDoctor):
		return httperr.BadRequest(err.Error())
	case errors.Is(err, ErrIllegalTransition):
		return httperr.New(http.StatusConflict, httperr.CodeIllegalTransition, err.Error())
	default:
		return httperr.Internal(err)
	}
}
