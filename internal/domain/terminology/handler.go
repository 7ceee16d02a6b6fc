package terminology

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the location picklists. They are public: the
// enrollment wizard reads them before anyone is signed in.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/countries", h.ListCountries)
	api.GET("/countries/:code/states", h.ListStates)
}

func (h *Handler) ListCountries(c echo.Context) error {
	countries, err := h.svc.ListCountries(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if countries == nil {
		countries = []*Country{}
	}
	return c.JSON(http.StatusOK, countries)
}

func (h *Handler) ListStates(c echo.Context) error {
	regions, err := h.svc.ListRegions(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "country not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if regions == nil {
		regions = []*Region{}
	}
	return c.JSON(http.StatusOK, regions)
}
