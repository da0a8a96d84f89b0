package labdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(repo ReportArchiveRepository) (*Handler, *Service) {
	svc := NewService(zerolog.Nop())
	if repo != nil {
		svc.SetArchive(repo)
	}
	return NewHandler(svc), svc
}

func postSynthesize(h *Handler, body, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/synthesize"+query, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Synthesize(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

const sampleBody = `{
	"patient_id": "PT123456",
	"labs": [
		{"test_name": "HbA1c", "value": 7.2, "unit": "%", "date": "2023-11-01"},
		{"test_name": "Creatinine", "value": 1.6, "unit": "mg/dL", "date": "2023-11-01"},
		{"test_name": "eGFR", "value": 54, "unit": "mL/min/1.73m2", "date": "2023-11-01"},
		{"test_name": "Fasting Glucose", "value": 120, "unit": "mg/dL", "date": "2023-11-01"}
	]
}`

func TestSynthesizeHandler_DefaultMarkdown(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, sampleBody, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["patient_id"] != "PT123456" {
		t.Errorf("patient_id: %q", resp["patient_id"])
	}
	md := resp["markdown"]
	for _, want := range []string{"## Patient Summary - ID: PT123456", "Renal", "Endocrine", "CKD"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestSynthesizeHandler_LaTeX(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, sampleBody, "?format=latex")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp["latex"], "\\documentclass{article}") {
		t.Errorf("latex: %q", resp["latex"])
	}
}

func TestSynthesizeHandler_JSON(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, sampleBody, "?format=json")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["patient_id"] != "PT123456" {
		t.Errorf("patient_id: %v", resp["patient_id"])
	}
	if _, ok := resp["health_summaries"]; !ok {
		t.Error("health_summaries missing")
	}
}

func TestSynthesizeHandler_All(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, sampleBody, "?format=all")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp Formats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Markdown == "" || resp.LaTeX == "" || resp.JSON == nil || resp.Summary == nil {
		t.Errorf("incomplete formats: %+v", resp)
	}
}

func TestSynthesizeHandler_InvalidFormat(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, sampleBody, "?format=pdf")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSynthesizeHandler_BadDate(t *testing.T) {
	h, _ := newTestHandler(nil)
	body := `{"patient_id": "PT1", "labs": [{"test_name": "HbA1c", "value": 7.2, "unit": "%", "date": "11/01/2023"}]}`
	rec := postSynthesize(h, body, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSynthesizeHandler_BadJSON(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := postSynthesize(h, `{not json`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSynthesizeHandler_ArchivesReport(t *testing.T) {
	repo := &mockArchiveRepo{}
	h, _ := newTestHandler(repo)
	rec := postSynthesize(h, sampleBody, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(repo.reports) != 1 {
		t.Fatalf("expected 1 archived report, got %d", len(repo.reports))
	}
	if repo.reports[0].PatientID != "PT123456" {
		t.Errorf("archived patient: %q", repo.reports[0].PatientID)
	}
}

func TestListReports_NoArchive(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListReports(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", rec.Code)
	}
}

func TestListReports(t *testing.T) {
	repo := &mockArchiveRepo{}
	h, svc := newTestHandler(repo)

	ps := svc.Synthesize(context.Background(), samplePatientData())
	svc.Archive(context.Background(), ps)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports?patient_id=PT123456", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListReports(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data  []*ArchivedReport `json:"data"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected 1 report, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestGetReport(t *testing.T) {
	repo := &mockArchiveRepo{}
	h, svc := newTestHandler(repo)

	ps := svc.Synthesize(context.Background(), samplePatientData())
	stored := svc.Archive(context.Background(), ps)
	if stored == nil {
		t.Fatal("archive failed")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/"+stored.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID.String())

	if err := h.GetReport(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ArchivedReport
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != stored.ID || got.PatientID != "PT123456" {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestGetReport_InvalidID(t *testing.T) {
	h, _ := newTestHandler(&mockArchiveRepo{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetReport(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
