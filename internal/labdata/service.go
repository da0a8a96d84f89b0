package labdata

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labsynth/labsynth/internal/platform/narrative"
)

// Service runs the synthesis pipeline. The narrative generator and the
// report archive are both optional collaborators; a nil generator means the
// deterministic trend engine is the only narrative source, and a nil archive
// means reports are not persisted.
type Service struct {
	gen     narrative.Generator
	archive ReportArchiveRepository
	logger  zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{logger: logger}
}

// SetNarrativeGenerator attaches an optional external narrative generator.
func (s *Service) SetNarrativeGenerator(gen narrative.Generator) {
	s.gen = gen
}

// SetArchive attaches an optional report archive.
func (s *Service) SetArchive(repo ReportArchiveRepository) {
	s.archive = repo
}

// Synthesize runs the full pipeline over one patient's results.
func (s *Service) Synthesize(ctx context.Context, pd *PatientData) *PatientSummary {
	for i := range pd.Labs {
		MapLabResult(&pd.Labs[i])
	}
	for i := range pd.Labs {
		NormalizeLabResult(&pd.Labs[i])
	}
	ClassifyAll(pd.Labs)

	order, groups := GroupByDomain(pd.Labs)

	summaries := make([]HealthSummary, 0, len(order))
	for _, domain := range order {
		hs := GenerateHealthSummary(domain, groups[domain])
		if s.gen != nil {
			hs.Trends = s.enhanceNarrative(ctx, pd.PatientID, hs)
		}
		summaries = append(summaries, hs)
	}

	return &PatientSummary{
		PatientID:       pd.PatientID,
		HealthSummaries: summaries,
		OverallSummary:  overallSummary(summaries),
	}
}

// enhanceNarrative asks the external service for narrative text, falling
// back to the deterministic trend text on any error. Callers never see the
// failure.
func (s *Service) enhanceNarrative(ctx context.Context, patientID string, hs HealthSummary) string {
	var b strings.Builder
	for _, lr := range hs.LabResults {
		b.WriteString(FormatLabResultLine(lr, true))
		b.WriteString("\n")
	}

	text, err := s.gen.Generate(ctx, narrative.Request{
		PatientID: patientID,
		Domain:    string(hs.Domain),
		LabText:   b.String(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("domain", string(hs.Domain)).
			Msg("narrative service failed, using deterministic trend text")
		return hs.Trends
	}
	return text
}

// overallSummary scans the per-domain narratives for issue and
// recommendation markers and assembles the aggregate narrative.
func overallSummary(summaries []HealthSummary) string {
	var issues, recommendations []string
	seen := make(map[string]bool)

	for _, hs := range summaries {
		if hs.Trends == "" || hs.Trends == TrendWithinLimits {
			continue
		}
		lower := strings.ToLower(hs.Trends)

		if strings.Contains(lower, "elevated") || strings.Contains(hs.Trends, StatusHigh) {
			switch hs.Domain {
			case DomainRenal:
				issues = append(issues, "early CKD")
			case DomainEndocrine:
				issues = append(issues, "pre-diabetes")
			case DomainLipid:
				issues = append(issues, "dyslipidemia")
			}
		}

		if strings.Contains(hs.Trends, "nephrology referral") && !seen["nephrology referral"] {
			seen["nephrology referral"] = true
			recommendations = append(recommendations, "nephrology referral")
		}
		if strings.Contains(lower, "follow-up") && !seen["follow-up testing"] {
			seen["follow-up testing"] = true
			recommendations = append(recommendations, "follow-up testing")
		}
		if strings.Contains(lower, "lifestyle") && !seen["lifestyle modifications"] {
			seen["lifestyle modifications"] = true
			recommendations = append(recommendations, "lifestyle modifications")
		}
	}

	if len(issues) == 0 {
		return "Overall stable lab values with no significant abnormalities."
	}

	text := "Patient trending toward " + strings.Join(issues, " and ") + "."
	if len(recommendations) > 0 {
		text += " Recommend " + strings.Join(recommendations, " and ") + "."
	}
	return text
}

// Formats bundles every rendering of one synthesis run.
type Formats struct {
	Markdown string                 `json:"markdown"`
	LaTeX    string                 `json:"latex"`
	JSON     map[string]interface{} `json:"json"`
	Summary  *PatientSummary        `json:"patient_summary"`
}

// SynthesizeFormats runs the pipeline and renders every output format.
func (s *Service) SynthesizeFormats(ctx context.Context, pd *PatientData) Formats {
	ps := s.Synthesize(ctx, pd)
	return Formats{
		Markdown: RenderMarkdown(ps),
		LaTeX:    RenderLaTeX(ps),
		JSON:     RenderObject(ps),
		Summary:  ps,
	}
}

// Archive stores a finished report when an archive is configured. Archive
// failures are logged, never surfaced: persistence is best-effort and the
// synthesis response does not depend on it.
func (s *Service) Archive(ctx context.Context, ps *PatientSummary) *ArchivedReport {
	if s.archive == nil {
		return nil
	}

	abnormal := 0
	for _, hs := range ps.HealthSummaries {
		for _, lr := range hs.LabResults {
			if StatusIndicator(lr) != "" {
				abnormal++
			}
		}
	}

	rec := &ArchivedReport{
		PatientID:      ps.PatientID,
		DomainCount:    len(ps.HealthSummaries),
		AbnormalCount:  abnormal,
		OverallSummary: ps.OverallSummary,
		Markdown:       RenderMarkdown(ps),
	}
	if err := s.archive.Create(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("patient_id", ps.PatientID).Msg("failed to archive report")
		return nil
	}
	return rec
}

// GetArchivedReport returns one archived report by id.
func (s *Service) GetArchivedReport(ctx context.Context, id uuid.UUID) (*ArchivedReport, error) {
	return s.archive.GetByID(ctx, id)
}

// ListArchivedReports returns archived reports, optionally filtered by
// patient id.
func (s *Service) ListArchivedReports(ctx context.Context, patientID string, limit, offset int) ([]*ArchivedReport, int, error) {
	if patientID != "" {
		return s.archive.ListByPatient(ctx, patientID, limit, offset)
	}
	return s.archive.List(ctx, limit, offset)
}

// HasArchive reports whether report persistence is configured.
func (s *Service) HasArchive() bool { return s.archive != nil }
