package documents

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/enrollment/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the consent endpoints on the authenticated staff group.
func (h *Handler) RegisterRoutes(staff *echo.Group) {
	read := staff.Group("", auth.RequireRole("admin", "registrar", "physician"))
	read.GET("/consents/:id", h.GetConsent)
	read.GET("/leads/:id/consents", h.ListConsentsByLead)

	write := staff.Group("", auth.RequireRole("admin", "registrar"))
	write.POST("/consents/:id/revoke", h.RevokeConsent)
}

func (h *Handler) GetConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	consent, err := h.svc.GetConsent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consent not found")
	}
	return c.JSON(http.StatusOK, consent)
}

func (h *Handler) ListConsentsByLead(c echo.Context) error {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lead id")
	}
	consents, err := h.svc.ListConsentsByLead(c.Request().Context(), leadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if consents == nil {
		consents = []*Consent{}
	}
	return c.JSON(http.StatusOK, consents)
}

func (h *Handler) RevokeConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RevokeConsent(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
