package labdata

import (
	"fmt"
	"strings"
)

// Clinical thresholds.
const (
	creatinineNormalUpper = 1.3 // mg/dL
	creatinineHigh        = 2.0 // mg/dL

	egfrNormalLower  = 60 // mL/min/1.73m2
	egfrStage4       = 30 // mL/min/1.73m2
	egfrStage3b      = 45 // mL/min/1.73m2
	egfrMildDecrease = 90 // mL/min/1.73m2

	hba1cDiabetes    = 6.5 // %
	hba1cPoorControl = 9.0 // %
	hba1cSuboptimal  = 7.0 // %
	hba1cPrediabetes = 5.7 // %

	glucoseDiabetes = 126 // mg/dL
	glucoseImpaired = 100 // mg/dL

	cholesterolHigh   = 200 // mg/dL
	ldlHigh           = 100 // mg/dL
	hdlLow            = 40  // mg/dL
	triglyceridesHigh = 150 // mg/dL
)

// Default narrative text per domain when no rule triggers.
const (
	TrendStableRenal   = "Stable renal function"
	TrendGoodGlucose   = "Good glucose control"
	TrendGoodLipids    = "Acceptable lipid profile"
	TrendWithinLimits  = "Values within normal limits"
)

// AnalyzeRenalFunction evaluates creatinine and eGFR results against CKD
// staging thresholds and returns the narrative for the Renal domain.
func AnalyzeRenalFunction(labs []LabResult) string {
	var creatinineLabs, egfrLabs []LabResult
	for _, lab := range labs {
		lower := strings.ToLower(lab.TestName)
		if strings.Contains(lower, "creatinine") {
			creatinineLabs = append(creatinineLabs, lab)
		}
		if strings.Contains(lower, "gfr") {
			egfrLabs = append(egfrLabs, lab)
		}
	}

	var trends, recommendations []string

	for _, lab := range creatinineLabs {
		if lab.Value > creatinineNormalUpper {
			if lab.Value > creatinineHigh {
				trends = append(trends, "Significantly elevated creatinine")
				recommendations = append(recommendations, "urgent nephrology referral")
			} else {
				trends = append(trends, "Mildly elevated creatinine")
				recommendations = append(recommendations, "monitor renal function")
			}
		}
	}

	for _, lab := range egfrLabs {
		switch {
		case lab.Value < egfrNormalLower:
			switch {
			case lab.Value < egfrStage4:
				trends = append(trends, "Severe kidney dysfunction (Stage 4 CKD)")
				recommendations = append(recommendations, "nephrology referral and CKD management")
			case lab.Value < egfrStage3b:
				trends = append(trends, "Moderate-severe kidney dysfunction (Stage 3b CKD)")
				recommendations = append(recommendations, "nephrology referral")
			default:
				trends = append(trends, "Moderate kidney dysfunction (Stage 3a CKD)")
				recommendations = append(recommendations, "monitor renal function")
			}
		case lab.Value < egfrMildDecrease:
			// Only flagged when creatinine is elevated too.
			for _, c := range creatinineLabs {
				if c.Value > creatinineNormalUpper {
					trends = append(trends, "Mild decrease in kidney function")
					break
				}
			}
		}
	}

	return joinTrends(trends, recommendations, TrendStableRenal)
}

// AnalyzeDiabetesControl evaluates HbA1c and fasting glucose results and
// returns the narrative for the Endocrine domain.
func AnalyzeDiabetesControl(labs []LabResult) string {
	var trends, recommendations []string

	// HbA1c findings come before glucose findings in the narrative.
	for _, lab := range labs {
		if !strings.Contains(strings.ToLower(lab.TestName), "a1c") {
			continue
		}
		switch {
		case lab.Value >= hba1cPoorControl:
			trends = append(trends, "Poor diabetes control")
			recommendations = append(recommendations, "intensify diabetes management")
		case lab.Value >= hba1cSuboptimal:
			trends = append(trends, "Suboptimal diabetes control")
			recommendations = append(recommendations, "optimize diabetes therapy")
		case lab.Value >= hba1cDiabetes:
			trends = append(trends, "Borderline diabetes control")
		case lab.Value >= hba1cPrediabetes:
			trends = append(trends, "Pre-diabetic range")
			recommendations = append(recommendations, "lifestyle modifications and monitoring")
		}
	}

	for _, lab := range labs {
		lower := strings.ToLower(lab.TestName)
		if !strings.Contains(lower, "glucose") || !strings.Contains(lower, "fasting") {
			continue
		}
		switch {
		case lab.Value >= glucoseDiabetes:
			trends = append(trends, "Diabetic fasting glucose")
		case lab.Value >= glucoseImpaired:
			trends = append(trends, "Impaired fasting glucose")
		}
	}

	return joinTrends(trends, recommendations, TrendGoodGlucose)
}

// AnalyzeLipidProfile evaluates cholesterol fractions and triglycerides and
// returns the narrative for the Lipid domain. The total/LDL/HDL checks are an
// else-if chain: a result whose name matches "total" is never re-checked
// against the LDL or HDL rules.
func AnalyzeLipidProfile(labs []LabResult) string {
	var trends, recommendations []string

	for _, lab := range labs {
		lower := strings.ToLower(lab.TestName)
		if !strings.Contains(lower, "cholesterol") {
			continue
		}
		switch {
		case strings.Contains(lower, "total") && lab.Value > cholesterolHigh:
			trends = append(trends, "Elevated total cholesterol")
			recommendations = append(recommendations, "lipid management")
		case strings.Contains(lower, "ldl") && lab.Value > ldlHigh:
			trends = append(trends, "Elevated LDL cholesterol")
			recommendations = append(recommendations, "statin therapy consideration")
		case strings.Contains(lower, "hdl") && lab.Value < hdlLow:
			trends = append(trends, "Low HDL cholesterol")
			recommendations = append(recommendations, "lifestyle modifications")
		}
	}

	for _, lab := range labs {
		if strings.Contains(strings.ToLower(lab.TestName), "triglyceride") && lab.Value > triglyceridesHigh {
			trends = append(trends, "Elevated triglycerides")
			recommendations = append(recommendations, "dietary modifications")
		}
	}

	return joinTrends(trends, recommendations, TrendGoodLipids)
}

// AnalyzeGeneric flags any out-of-range result in domains without a
// dedicated rule set.
func AnalyzeGeneric(labs []LabResult) string {
	var abnormal []string
	for _, lab := range labs {
		if status := StatusIndicator(lab); status != "" {
			abnormal = append(abnormal, fmt.Sprintf("%s %s", lab.TestName, status))
		}
	}
	if len(abnormal) > 0 {
		return fmt.Sprintf("Abnormal values: %s - follow up as clinically indicated", strings.Join(abnormal, ", "))
	}
	return TrendWithinLimits
}

// GenerateHealthSummary builds the per-domain summary using the matching
// trend rule set.
func GenerateHealthSummary(domain HealthDomain, labs []LabResult) HealthSummary {
	var trends string
	switch domain {
	case DomainRenal:
		trends = AnalyzeRenalFunction(labs)
	case DomainEndocrine:
		trends = AnalyzeDiabetesControl(labs)
	case DomainLipid:
		trends = AnalyzeLipidProfile(labs)
	default:
		trends = AnalyzeGeneric(labs)
	}
	return HealthSummary{Domain: domain, LabResults: labs, Trends: trends}
}

func joinTrends(trends, recommendations []string, fallback string) string {
	if len(trends) == 0 {
		return fallback
	}
	text := strings.Join(trends, "; ")
	if len(recommendations) > 0 {
		text += fmt.Sprintf(" - suggest %s", strings.Join(recommendations, ", "))
	}
	return text
}
