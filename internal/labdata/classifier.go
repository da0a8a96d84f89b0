package labdata

import "strings"

// testDomainMap maps known test names to their health domain.
var testDomainMap = map[string]HealthDomain{
	// Renal / kidney
	"Creatinine":          DomainRenal,
	"Serum Creatinine":    DomainRenal,
	"eGFR":                DomainRenal,
	"Estimated GFR":       DomainRenal,
	"BUN":                 DomainRenal,
	"Blood Urea Nitrogen": DomainRenal,
	"Albumin":             DomainRenal,
	"Protein":             DomainRenal,

	// Endocrine / diabetes
	"HbA1c":           DomainEndocrine,
	"Hemoglobin A1c":  DomainEndocrine,
	"Fasting Glucose": DomainEndocrine,
	"Glucose":         DomainEndocrine,
	"Random Glucose":  DomainEndocrine,
	"Insulin":         DomainEndocrine,
	"C-Peptide":       DomainEndocrine,

	// Thyroid
	"TSH":     DomainThyroid,
	"T3":      DomainThyroid,
	"T4":      DomainThyroid,
	"Free T4": DomainThyroid,
	"Free T3": DomainThyroid,

	// Lipid
	"Total Cholesterol": DomainLipid,
	"HDL Cholesterol":   DomainLipid,
	"LDL Cholesterol":   DomainLipid,
	"Triglycerides":     DomainLipid,
	"VLDL":              DomainLipid,

	// Cardiovascular
	"Troponin":  DomainCardiovascular,
	"CK-MB":     DomainCardiovascular,
	"BNP":       DomainCardiovascular,
	"NT-proBNP": DomainCardiovascular,

	// Hematology
	"Hemoglobin":             DomainHematology,
	"Hematocrit":             DomainHematology,
	"White Blood Cell Count": DomainHematology,
	"Red Blood Cell Count":   DomainHematology,
	"Platelet Count":         DomainHematology,
	"WBC":                    DomainHematology,
	"RBC":                    DomainHematology,

	// Liver
	"ALT":              DomainLiver,
	"AST":              DomainLiver,
	"ALP":              DomainLiver,
	"Bilirubin":        DomainLiver,
	"Total Bilirubin":  DomainLiver,
	"Direct Bilirubin": DomainLiver,
	"GGT":              DomainLiver,
}

// keywordRule is a substring-based fallback classification rule.
type keywordRule struct {
	keywords []string
	domain   HealthDomain
}

// keywordRules are applied in order; the first matching rule wins.
var keywordRules = []keywordRule{
	{[]string{"glucose", "a1c", "insulin"}, DomainEndocrine},
	{[]string{"creatinine", "gfr", "bun"}, DomainRenal},
	{[]string{"cholesterol", "triglyceride", "lipid"}, DomainLipid},
	{[]string{"hemoglobin", "hematocrit", "wbc", "rbc", "platelet"}, DomainHematology},
	{[]string{"alt", "ast", "bilirubin", "liver"}, DomainLiver},
	{[]string{"tsh", "thyroid", "t3", "t4"}, DomainThyroid},
}

// Classify maps a single lab result to a health domain. It never fails:
// unrecognized tests fall back to Other.
func Classify(lr LabResult) HealthDomain {
	if d, ok := testDomainMap[lr.TestName]; ok {
		return d
	}

	lower := strings.ToLower(lr.TestName)
	for name, d := range testDomainMap {
		if strings.ToLower(name) == lower {
			return d
		}
	}

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.domain
			}
		}
	}

	return DomainOther
}

// ClassifyAll classifies every result in place. Re-running it re-derives the
// same values.
func ClassifyAll(labs []LabResult) {
	for i := range labs {
		labs[i].HealthDomain = Classify(labs[i])
	}
}

// GroupByDomain buckets results by health domain, classifying any result
// that has no domain yet. Input order is preserved within each bucket and
// the returned domain order is first-encounter order.
func GroupByDomain(labs []LabResult) ([]HealthDomain, map[HealthDomain][]LabResult) {
	var order []HealthDomain
	groups := make(map[HealthDomain][]LabResult)

	for i := range labs {
		if labs[i].HealthDomain == "" {
			labs[i].HealthDomain = Classify(labs[i])
		}
		d := labs[i].HealthDomain
		if _, ok := groups[d]; !ok {
			order = append(order, d)
		}
		groups[d] = append(groups[d], labs[i])
	}

	return order, groups
}
