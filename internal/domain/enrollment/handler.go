package enrollment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/clientstore"
)

type Handler struct {
	sessions *Manager
	storage  clientstore.Store
}

func NewHandler(sessions *Manager, storage clientstore.Store) *Handler {
	return &Handler{sessions: sessions, storage: storage}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/enrollments", h.Start)
	api.GET("/enrollments/:id", h.Get)
	api.DELETE("/enrollments/:id", h.Delete)
	api.PUT("/enrollments/:id/fields/:key", h.Input)
	api.POST("/enrollments/:id/branch", h.ChooseBranch)
	api.GET("/enrollments/:id/practitioners", h.Search)
	api.POST("/enrollments/:id/practitioners/:pid", h.Select)
	api.DELETE("/enrollments/:id/practitioners", h.Clear)
	api.POST("/enrollments/:id/new-practitioner", h.ToggleNew)
	api.POST("/enrollments/:id/next", h.Next)
	api.POST("/enrollments/:id/back", h.Back)
	api.POST("/enrollments/:id/submit", h.Submit)
	api.POST("/enrollments/:id/modal/dismiss", h.DismissModal)
	api.POST("/enrollments/:id/restart", h.Restart)
	api.GET("/enrollments/:id/storage/:key", h.ReadStorage)
}

type startRequest struct {
	Registrant validation.Registrant `json:"registrant"`
}

type inputRequest struct {
	Value string `json:"value"`
}

type branchRequest struct {
	AccessCode *bool `json:"access_code"`
}

func (h *Handler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctrl, err := h.sessions.Start(c.Request().Context(), req.Registrant)
	if err != nil {
		if errors.Is(err, ErrInvalidRegistrant) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, ctrl.View())
}

func (h *Handler) Get(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.View())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Input(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	var req inputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := ctrl.Input(c.Request().Context(), validation.Key(c.Param("key")), req.Value)
	return respond(c, v, err)
}

func (h *Handler) ChooseBranch(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	var req branchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AccessCode == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "access_code is required")
	}
	v, err := ctrl.ChooseBranch(c.Request().Context(), *req.AccessCode)
	return respond(c, v, err)
}

func (h *Handler) Search(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.SearchPractitioners(c.Request().Context(), c.QueryParam("q"))
	return respond(c, v, err)
}

func (h *Handler) Select(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.SelectPractitioner(c.Request().Context(), c.Param("pid"))
	return respond(c, v, err)
}

func (h *Handler) Clear(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.ClearPractitioner(c.Request().Context())
	return respond(c, v, err)
}

func (h *Handler) ToggleNew(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.ToggleNewPractitioner(c.Request().Context())
	return respond(c, v, err)
}

func (h *Handler) Next(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.Next(c.Request().Context())
	return respond(c, v, err)
}

func (h *Handler) Back(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	var target Step
	if s := c.QueryParam("step"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid step")
		}
		target = Step(n)
	}
	v, err := ctrl.Back(c.Request().Context(), target)
	return respond(c, v, err)
}

func (h *Handler) Submit(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.Submit(c.Request().Context())
	return respond(c, v, err)
}

func (h *Handler) DismissModal(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.DismissModal(c.Request().Context())
	return respond(c, v, err)
}

func (h *Handler) Restart(c echo.Context) error {
	ctrl, err := h.session(c)
	if err != nil {
		return err
	}
	v, err := ctrl.Restart(c.Request().Context())
	return respond(c, v, err)
}

// ReadStorage returns a client storage value of the session. Only the keys
// written by the wizard are readable, and the session may already be gone.
func (h *Handler) ReadStorage(c echo.Context) error {
	key := c.Param("key")
	if !clientstore.AllowedKey(key) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown storage key")
	}
	value, err := h.storage.Get(c.Request().Context(), c.Param("id"), key)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no value stored")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"key": key, "value": value})
}

func (h *Handler) session(c echo.Context) (*Controller, error) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return nil, httpError(err)
	}
	return ctrl, nil
}

// respond writes the view. Invalid submissions still carry the view so the
// client can render the field errors.
func respond(c echo.Context, v View, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, v)
	case errors.Is(err, ErrSubmissionInvalid):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": err.Error(),
			"view":    v,
		})
	default:
		return httpError(err)
	}
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, validation.ErrUnknownField),
		errors.Is(err, ErrPractitionerNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTransitionPending),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSessionFailed),
		errors.Is(err, ErrSessionCompleted),
		errors.Is(err, ErrBranchRequired),
		errors.Is(err, ErrAddNewDisabled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSubmissionInvalid):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
