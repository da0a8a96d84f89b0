// Package analytics exposes predefined SQL measures over the report
// archive.
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// MeasureDefinition defines an analytics measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available archive measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "report-volume-by-day",
		Name:        "Report Volume by Day",
		Description: "Number of synthesized reports per calendar day",
		SQL:         `SELECT DATE(created_at) AS day, COUNT(*) AS total FROM report_archive GROUP BY DATE(created_at) ORDER BY day DESC`,
	},
	{
		ID:          "reports-per-patient",
		Name:        "Reports per Patient",
		Description: "Number of archived reports grouped by patient",
		SQL:         `SELECT patient_id, COUNT(*) AS total FROM report_archive GROUP BY patient_id ORDER BY total DESC`,
	},
	{
		ID:          "abnormal-rate",
		Name:        "Abnormal Result Rate",
		Description: "Share of reports containing at least one out-of-range result",
		SQL: `SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN abnormal_count > 0 THEN 1 ELSE 0 END), 0) AS with_abnormal
			FROM report_archive`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Handler provides HTTP handlers for the analytics API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new analytics handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the analytics API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics")
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
