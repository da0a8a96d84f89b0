package labdata

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labsynth/labsynth/pkg/pagination"
)

// maxRequestBytes caps the synthesize request body.
const maxRequestBytes = 4 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/synthesize", h.Synthesize)
	api.GET("/reports", h.ListReports)
	api.GET("/reports/:id", h.GetReport)
}

// Synthesize runs the pipeline over the posted patient data and returns the
// requested rendering. ?format=markdown|latex|json|all (default markdown).
func (h *Handler) Synthesize(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read request body")
	}

	pd, err := ParsePatientData(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	format := c.QueryParam("format")

	switch format {
	case "", "markdown":
		ps := h.svc.Synthesize(ctx, pd)
		h.svc.Archive(ctx, ps)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"patient_id": ps.PatientID,
			"markdown":   RenderMarkdown(ps),
		})
	case "latex":
		ps := h.svc.Synthesize(ctx, pd)
		h.svc.Archive(ctx, ps)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"patient_id": ps.PatientID,
			"latex":      RenderLaTeX(ps),
		})
	case "json":
		ps := h.svc.Synthesize(ctx, pd)
		h.svc.Archive(ctx, ps)
		return c.JSON(http.StatusOK, RenderObject(ps))
	case "all":
		out := h.svc.SynthesizeFormats(ctx, pd)
		h.svc.Archive(ctx, out.Summary)
		return c.JSON(http.StatusOK, out)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid format: "+format)
	}
}

func (h *Handler) ListReports(c echo.Context) error {
	if !h.svc.HasArchive() {
		return echo.NewHTTPError(http.StatusNotImplemented, "report archive not configured")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListArchivedReports(c.Request().Context(), c.QueryParam("patient_id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetReport(c echo.Context) error {
	if !h.svc.HasArchive() {
		return echo.NewHTTPError(http.StatusNotImplemented, "report archive not configured")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetArchivedReport(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, rec)
}
