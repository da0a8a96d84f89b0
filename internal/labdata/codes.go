package labdata

import (
	"fmt"
	"strconv"
	"strings"
)

// loincMap maps common test names to LOINC codes.
var loincMap = map[string]string{
	"HbA1c":                  "4548-4",
	"Hemoglobin A1c":         "4548-4",
	"Creatinine":             "2160-0",
	"Serum Creatinine":       "2160-0",
	"eGFR":                   "33914-3",
	"Estimated GFR":          "33914-3",
	"Fasting Glucose":        "1558-6",
	"Glucose":                "2345-7",
	"Total Cholesterol":      "2093-3",
	"HDL Cholesterol":        "2085-9",
	"LDL Cholesterol":        "2089-1",
	"Triglycerides":          "2571-8",
	"TSH":                    "3016-3",
	"BUN":                    "6299-2",
	"Hemoglobin":             "718-7",
	"Hematocrit":             "4544-3",
	"White Blood Cell Count": "6690-2",
	"Platelet Count":         "777-3",
}

// referenceRanges holds adult reference ranges for common tests.
var referenceRanges = map[string]ReferenceRange{
	"HbA1c":                  {TestName: "HbA1c", Min: f64(4.0), Max: f64(5.6), Unit: "%", Population: "adult", Decimals: 1},
	"Hemoglobin A1c":         {TestName: "Hemoglobin A1c", Min: f64(4.0), Max: f64(5.6), Unit: "%", Population: "adult", Decimals: 1},
	"Creatinine":             {TestName: "Creatinine", Min: f64(0.6), Max: f64(1.3), Unit: "mg/dL", Population: "adult", Decimals: 1},
	"Serum Creatinine":       {TestName: "Serum Creatinine", Min: f64(0.6), Max: f64(1.3), Unit: "mg/dL", Population: "adult", Decimals: 1},
	"eGFR":                   {TestName: "eGFR", Min: f64(60), Unit: "mL/min/1.73m2", Population: "adult"},
	"Estimated GFR":          {TestName: "Estimated GFR", Min: f64(60), Unit: "mL/min/1.73m2", Population: "adult"},
	"Fasting Glucose":        {TestName: "Fasting Glucose", Min: f64(70), Max: f64(99), Unit: "mg/dL", Population: "adult"},
	"Glucose":                {TestName: "Glucose", Min: f64(70), Max: f64(140), Unit: "mg/dL", Population: "adult"},
	"Total Cholesterol":      {TestName: "Total Cholesterol", Max: f64(200), Unit: "mg/dL", Population: "adult"},
	"HDL Cholesterol":        {TestName: "HDL Cholesterol", Min: f64(40), Unit: "mg/dL", Population: "adult"},
	"LDL Cholesterol":        {TestName: "LDL Cholesterol", Max: f64(100), Unit: "mg/dL", Population: "adult"},
	"Triglycerides":          {TestName: "Triglycerides", Max: f64(150), Unit: "mg/dL", Population: "adult"},
	"TSH":                    {TestName: "TSH", Min: f64(0.4), Max: f64(4.0), Unit: "mIU/L", Population: "adult", Decimals: 1},
	"BUN":                    {TestName: "BUN", Min: f64(7), Max: f64(20), Unit: "mg/dL", Population: "adult"},
	"Hemoglobin":             {TestName: "Hemoglobin", Min: f64(12.0), Max: f64(16.0), Unit: "g/dL", Population: "adult", Decimals: 1},
	"Hematocrit":             {TestName: "Hematocrit", Min: f64(36.0), Max: f64(46.0), Unit: "%", Population: "adult", Decimals: 1},
	"White Blood Cell Count": {TestName: "White Blood Cell Count", Min: f64(4.5), Max: f64(11.0), Unit: "K/uL", Population: "adult", Decimals: 1},
	"Platelet Count":         {TestName: "Platelet Count", Min: f64(150), Max: f64(450), Unit: "K/uL", Population: "adult"},
}

// LOINCCode returns the LOINC code for a test name, or "" when unknown.
// Lookup is exact first, then case-insensitive.
func LOINCCode(testName string) string {
	if code, ok := loincMap[testName]; ok {
		return code
	}
	lower := strings.ToLower(testName)
	for name, code := range loincMap {
		if strings.ToLower(name) == lower {
			return code
		}
	}
	return ""
}

// MapLabResult attaches the LOINC code when one is known. An already-set
// code is never cleared.
func MapLabResult(lr *LabResult) {
	if code := LOINCCode(lr.TestName); code != "" {
		lr.LOINCCode = code
	}
}

// GetReferenceRange returns the reference range for a test, exact then
// case-insensitive. ok is false for unknown tests.
func GetReferenceRange(testName string) (ReferenceRange, bool) {
	if rr, ok := referenceRanges[testName]; ok {
		return rr, true
	}
	lower := strings.ToLower(testName)
	for name, rr := range referenceRanges {
		if strings.ToLower(name) == lower {
			return rr, true
		}
	}
	return ReferenceRange{}, false
}

// NormalizeLabResult attaches a human-readable reference range string when
// the test is known. Unknown tests are left untouched.
func NormalizeLabResult(lr *LabResult) {
	rr, ok := GetReferenceRange(lr.TestName)
	if !ok {
		return
	}

	var minStr, maxStr string
	if rr.Min != nil {
		minStr = formatBound(*rr.Min, rr.Decimals)
	}
	if rr.Max != nil {
		maxStr = formatBound(*rr.Max, rr.Decimals)
	}

	switch {
	case minStr != "" && maxStr != "":
		lr.ReferenceRange = fmt.Sprintf("Normal: %s-%s", minStr, maxStr)
	case minStr != "":
		lr.ReferenceRange = fmt.Sprintf("Normal: >%s", minStr)
	case maxStr != "":
		lr.ReferenceRange = fmt.Sprintf("Normal: <%s", maxStr)
	}
}

// StatusIndicator returns "↑", "↓" or "" for a result. Unknown tests always
// yield "".
func StatusIndicator(lr LabResult) string {
	rr, ok := GetReferenceRange(lr.TestName)
	if !ok {
		return ""
	}
	return rr.Status(lr.Value)
}

// formatBound renders a range bound at the table's display precision, so
// "Normal: 4.0-5.6" and "Normal: >60" come out as written on lab report
// forms.
func formatBound(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
