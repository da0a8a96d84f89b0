package labdata

import (
	"fmt"
	"strings"
)

// FormatLabResultLine renders one result as a markdown bullet, with the
// directional indicator and reference range when present.
func FormatLabResultLine(lr LabResult, includeReference bool) string {
	statusStr := ""
	if status := StatusIndicator(lr); status != "" {
		statusStr = " " + status
	}
	refStr := ""
	if includeReference && lr.ReferenceRange != "" {
		refStr = fmt.Sprintf(" (%s)", lr.ReferenceRange)
	}
	return fmt.Sprintf("- **%s**: %v %s%s%s", lr.TestName, lr.Value, lr.Unit, statusStr, refStr)
}

// RenderMarkdown produces the markdown report for a patient summary. A
// summary with no domains still gets its header line.
func RenderMarkdown(ps *PatientSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Patient Summary - ID: %s\n\n", ps.PatientID)

	for _, hs := range ps.HealthSummaries {
		fmt.Fprintf(&b, "**Health Domain: %s**\n", hs.Domain)
		for _, lr := range hs.LabResults {
			b.WriteString(FormatLabResultLine(lr, true))
			b.WriteString("\n")
		}
		if hs.Trends != "" {
			fmt.Fprintf(&b, "- **Trend**: %s\n", hs.Trends)
		}
		b.WriteString("\n")
	}

	if ps.OverallSummary != "" {
		fmt.Fprintf(&b, "**Summary**: %s\n", ps.OverallSummary)
	}

	return b.String()
}

// RenderLaTeX produces a standalone LaTeX document for a patient summary.
func RenderLaTeX(ps *PatientSummary) string {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n")
	b.WriteString("\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\usepackage{amsmath}\n")
	b.WriteString("\\usepackage{booktabs}\n")
	b.WriteString("\\title{Patient Lab Summary}\n")
	b.WriteString("\\begin{document}\n")
	b.WriteString("\\maketitle\n\n")
	fmt.Fprintf(&b, "\\section{Patient Summary - ID: %s}\n\n", ps.PatientID)

	for _, hs := range ps.HealthSummaries {
		fmt.Fprintf(&b, "\\subsection{%s}\n", hs.Domain)
		b.WriteString("\\begin{itemize}\n")
		for _, lr := range hs.LabResults {
			statusStr := ""
			if status := StatusIndicator(lr); status != "" {
				statusStr = " " + status
			}
			refStr := ""
			if lr.ReferenceRange != "" {
				refStr = fmt.Sprintf(" (%s)", lr.ReferenceRange)
			}
			fmt.Fprintf(&b, "\\item \\textbf{%s}: %v %s%s%s\n", lr.TestName, lr.Value, lr.Unit, statusStr, refStr)
		}
		if hs.Trends != "" {
			fmt.Fprintf(&b, "\\item \\textbf{Trend}: %s\n", hs.Trends)
		}
		b.WriteString("\\end{itemize}\n\n")
	}

	if ps.OverallSummary != "" {
		b.WriteString("\\section{Summary}\n")
		b.WriteString(ps.OverallSummary)
		b.WriteString("\n\n")
	}

	b.WriteString("\\end{document}\n")
	return b.String()
}

// RenderObject converts a patient summary into a plain nested map with enum
// values as string labels, suitable for JSON encoding.
func RenderObject(ps *PatientSummary) map[string]interface{} {
	summaries := make([]interface{}, 0, len(ps.HealthSummaries))
	for _, hs := range ps.HealthSummaries {
		labs := make([]interface{}, 0, len(hs.LabResults))
		for _, lr := range hs.LabResults {
			labs = append(labs, labResultObject(lr))
		}
		entry := map[string]interface{}{
			"domain":      string(hs.Domain),
			"lab_results": labs,
		}
		if hs.Trends != "" {
			entry["trends"] = hs.Trends
		}
		if hs.Recommendations != "" {
			entry["recommendations"] = hs.Recommendations
		}
		summaries = append(summaries, entry)
	}

	result := map[string]interface{}{
		"patient_id":       ps.PatientID,
		"health_summaries": summaries,
	}
	if ps.OverallSummary != "" {
		result["overall_summary"] = ps.OverallSummary
	}
	return result
}

func labResultObject(lr LabResult) map[string]interface{} {
	obj := map[string]interface{}{
		"test_name": lr.TestName,
		"value":     lr.Value,
		"unit":      lr.Unit,
		"date":      lr.Date,
	}
	if lr.LOINCCode != "" {
		obj["loinc_code"] = lr.LOINCCode
	}
	if lr.ReferenceRange != "" {
		obj["reference_range"] = lr.ReferenceRange
	}
	if lr.HealthDomain != "" {
		obj["health_domain"] = string(lr.HealthDomain)
	}
	return obj
}
