package report

import (
	"fmt"

	"github.com/kamilpajak/pauli/pkg/models"
)

// recommendations derives ordered human guidance from the assembled report.
// Most actionable first; deduplicated by construction.
func recommendations(r *models.QualityReport) []string {
	recs := []string{}

	if t := r.Analysis.TestAnalysis; t != nil && t.Failed > 0 {
		recs = append(recs, fmt.Sprintf(
			"Fix %d failing test(s); root-cause hypotheses are attached to each failure", t.Failed))
	}

	if v := r.Analysis.VisualAnalysis; v != nil {
		if v.Critical > 0 {
			recs = append(recs, fmt.Sprintf(
				"Review %d critical visual regression(s) against their baseline images before release", v.Critical))
		}
		if v.Major > 0 {
			recs = append(recs, fmt.Sprintf(
				"Inspect %d major visual regression(s); rendering output drifted noticeably", v.Major))
		}
		if len(v.Trends.DegradingTests) > 0 {
			recs = append(recs, fmt.Sprintf(
				"%d test(s) show degrading similarity scores run-over-run; investigate before they cross a severity threshold", len(v.Trends.DegradingTests)))
		}
	}

	if l := r.Analysis.LogAnalysis; l != nil {
		if l.Patterns.ErrorRate.HasSpike {
			recs = append(recs, fmt.Sprintf(
				"Error rate spiked to %.1f/h against a baseline of %.1f/h; check recent changes",
				l.Patterns.ErrorRate.CurrentRate, l.Patterns.ErrorRate.BaselineRate))
		}
		for _, p := range l.Patterns.RepeatedExceptions {
			recs = append(recs, fmt.Sprintf(
				"Exception %s repeated %d times (%q); likely a single root cause",
				p.ExceptionType, p.Count, p.NormalizedMessage))
		}
		if len(l.Patterns.PerformanceWarnings) > 0 {
			recs = append(recs, fmt.Sprintf(
				"%d operation(s) exceeded the duration threshold; profile the slow paths", len(l.Patterns.PerformanceWarnings)))
		}
		if l.Patterns.MissingCorrelationIDs.Count > 0 {
			recs = append(recs, fmt.Sprintf(
				"%d log entries lack correlation ids, weakening failure-to-log correlation; thread ids through those call sites", l.Patterns.MissingCorrelationIDs.Count))
		}
	}

	if val := r.Analysis.ValidationAnalysis; val != nil && val.Invalid > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d generated document(s) failed conformance validation; see validationAnalysis for details", val.Invalid))
	}

	if len(recs) == 0 {
		recs = append(recs, "No issues detected; quality gate is healthy")
	}
	return recs
}
