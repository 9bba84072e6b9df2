package invoice

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
	"github.com/clinadmin/clinadmin/pkg/pagination"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/facturas", h.List)
	api.GET("/facturas/:id", h.Get)
	api.POST("/facturas/preview", h.Preview)
	api.POST("/facturas", h.Issue)
	api.POST("/facturas/:id/pagar", h.MarkPaid)
}

// selectionRequest carries the appointment ids chosen for invoicing, in
// selection order.
type selectionRequest struct {
	Citas []string `json:"citas"`
}

func (h *Handler) Preview(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	draft, err := h.engine.BuildDraft(c.Request().Context(), req.Citas)
	if errors.Is(err, ErrEmptySelection) || errors.Is(err, ErrNotBillable) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, draft)
}

func (h *Handler) Issue(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	draft, err := h.engine.BuildDraft(ctx, req.Citas)
	if errors.Is(err, ErrEmptySelection) || errors.Is(err, ErrNotBillable) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	issued, err := h.engine.Issue(ctx, draft, req.Citas)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, issued)
}

func (h *Handler) Get(c echo.Context) error {
	inv, err := h.engine.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, docstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	invoices, total, err := h.engine.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkPaid(c echo.Context) error {
	inv, err := h.engine.MarkPaid(c.Request().Context(), c.Param("id"))
	if errors.Is(err, docstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	if errors.Is(err, ErrNotIssued) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}
