package procedure

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
	"github.com/clinadmin/clinadmin/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/procedimientos", h.List)
	api.GET("/procedimientos/:id", h.Get)
	api.POST("/procedimientos", h.Create)
	api.PUT("/procedimientos/:id", h.Update)
}

// request distinguishes an omitted valor from an explicit zero.
type request struct {
	CodigoCups string   `json:"codigoCups"`
	Nombre     string   `json:"nombre"`
	Valor      *float64 `json:"valor"`
}

func (r request) toProcedure() *Procedure {
	p := &Procedure{CodigoCups: r.CodigoCups, Nombre: r.Nombre}
	if r.Valor != nil {
		p.Valor = *r.Valor
		p.ValorDefinido = true
	}
	return p
}

func (h *Handler) Create(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := req.toProcedure()
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, docstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	procedures, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(procedures, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p := req.toProcedure()
	p.ID = c.Param("id")
	err := h.svc.Update(c.Request().Context(), p)
	if errors.Is(err, docstore.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
