package dashboard

import (
	"net/http"

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
	api.GET("/dashboard/stats", h.Stats, auth.Require(auth.OpReadDashboard))
}

func (h *Handler) Stats(c echo.Context) error {
	caller, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), caller)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, stats)
}
