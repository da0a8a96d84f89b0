package labdata

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthDomain is the closed set of clinical areas a lab result can belong to.
type HealthDomain string

const (
	DomainRenal          HealthDomain = "Renal"
	DomainEndocrine      HealthDomain = "Endocrine"
	DomainCardiovascular HealthDomain = "Cardiovascular"
	DomainHematology     HealthDomain = "Hematology"
	DomainLiver          HealthDomain = "Liver"
	DomainLipid          HealthDomain = "Lipid"
	DomainThyroid        HealthDomain = "Thyroid"
	DomainImmunology     HealthDomain = "Immunology"
	DomainOther          HealthDomain = "Other"
)

const dateLayout = "2006-01-02"

// LabResult is a single discrete lab test result. The pipeline progressively
// fills in LOINCCode, ReferenceRange and HealthDomain as it runs.
type LabResult struct {
	TestName       string       `json:"test_name"`
	Value          float64      `json:"value"`
	Unit           string       `json:"unit"`
	Date           string       `json:"date"`
	LOINCCode      string       `json:"loinc_code,omitempty"`
	ReferenceRange string       `json:"reference_range,omitempty"`
	HealthDomain   HealthDomain `json:"health_domain,omitempty"`
}

// NewLabResult validates the date and returns the result.
func NewLabResult(testName string, value float64, unit, date string) (LabResult, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return LabResult{}, fmt.Errorf("invalid date format: %s, expected YYYY-MM-DD", date)
	}
	return LabResult{TestName: testName, Value: value, Unit: unit, Date: date}, nil
}

// Validate checks the date field of an already-built result.
func (lr *LabResult) Validate() error {
	if _, err := time.Parse(dateLayout, lr.Date); err != nil {
		return fmt.Errorf("invalid date format: %s, expected YYYY-MM-DD", lr.Date)
	}
	return nil
}

// PatientData is one patient's lab result set, the input to the pipeline.
type PatientData struct {
	PatientID string      `json:"patient_id"`
	Labs      []LabResult `json:"labs"`
}

// NewPatientData validates every lab's date.
func NewPatientData(patientID string, labs []LabResult) (*PatientData, error) {
	pd := &PatientData{PatientID: patientID, Labs: labs}
	for i := range pd.Labs {
		if err := pd.Labs[i].Validate(); err != nil {
			return nil, err
		}
	}
	return pd, nil
}

// ParsePatientData decodes raw JSON into validated PatientData. Unknown test
// names are fine; malformed dates are not.
func ParsePatientData(data []byte) (*PatientData, error) {
	var pd PatientData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("parse patient data: %w", err)
	}
	return NewPatientData(pd.PatientID, pd.Labs)
}

// ReferenceRange is the normal interval for a test. Min or Max may be nil
// when the range is open on that side. Decimals is the display precision for
// the bounds ("0.6-1.3" vs ">60").
type ReferenceRange struct {
	TestName   string   `json:"test_name"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Unit       string   `json:"unit"`
	Population string   `json:"population"`
	Decimals   int      `json:"-"`
}

// IsNormal reports whether value falls inside the range. An absent bound
// never excludes a value.
func (rr ReferenceRange) IsNormal(value float64) bool {
	if rr.Min != nil && value < *rr.Min {
		return false
	}
	if rr.Max != nil && value > *rr.Max {
		return false
	}
	return true
}

// Status returns the directional indicator for value: "↓" below range,
// "↑" above range, "" within range.
func (rr ReferenceRange) Status(value float64) string {
	if rr.IsNormal(value) {
		return ""
	}
	if rr.Min != nil && value < *rr.Min {
		return StatusLow
	}
	if rr.Max != nil && value > *rr.Max {
		return StatusHigh
	}
	return ""
}

// Directional status indicators used in rendered reports.
const (
	StatusHigh = "↑"
	StatusLow  = "↓"
)

// HealthSummary is the per-domain slice of a patient summary.
type HealthSummary struct {
	Domain          HealthDomain `json:"domain"`
	LabResults      []LabResult  `json:"lab_results"`
	Trends          string       `json:"trends,omitempty"`
	Recommendations string       `json:"recommendations,omitempty"`
}

// PatientSummary is the terminal artifact of the pipeline.
type PatientSummary struct {
	PatientID       string          `json:"patient_id"`
	HealthSummaries []HealthSummary `json:"health_summaries"`
	OverallSummary  string          `json:"overall_summary,omitempty"`
}

func f64(v float64) *float64 { return &v }
