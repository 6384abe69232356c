package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kamilpajak/pauli/pkg/models"
)

// LogScore constants: a run starts at 100 and loses points for error rate
// (2/point per error-hour, capped at 40), a detected spike (20), repeated
// exception clusters (5 each, capped at 20) and performance warnings (2 each,
// capped at 10).
const (
	errorRatePenaltyPerUnit = 2.0
	errorRatePenaltyCap     = 40.0
	spikePenalty            = 20.0
	repeatedPenaltyEach     = 5.0
	repeatedPenaltyCap      = 20.0
	perfPenaltyEach         = 2.0
	perfPenaltyCap          = 10.0
)

// VisualScore per-occurrence penalties on top of the severity pass rate.
const (
	minorPenalty    = 5.0
	majorPenalty    = 15.0
	criticalPenalty = 30.0
)

// Weights are the relative importance of each category, summing to 100.
// Absent categories have their weight redistributed proportionally.
type Weights struct {
	Tests      float64 `yaml:"tests"`
	Logs       float64 `yaml:"logs"`
	Visual     float64 `yaml:"visual"`
	Validation float64 `yaml:"validation"`
}

// DefaultWeights is the 40/30/20/10 split.
func DefaultWeights() Weights {
	return Weights{Tests: 40, Logs: 30, Visual: 20, Validation: 10}
}

// Inputs carries everything the generator assembles into a report. Nil
// members mark absent categories.
type Inputs struct {
	Tests       *models.TestResults
	Logs        *models.LogResults
	LogPatterns *models.LogPatterns
	Visual      *models.VisualAnalysis
	Validation  *models.ValidationResults
	Hypotheses  []models.TestFailureAnalysis
	BuildID     string
	Version     string
}

// Generator computes the weighted quality score and assembles the final
// schema-validated report.
type Generator struct {
	weights   Weights
	validator *SchemaValidator
	now       func() time.Time
	log       *slog.Logger
}

// NewGenerator creates a report generator. A nil now defaults to time.Now;
// tests inject a fixed clock to keep reports reproducible.
func NewGenerator(weights Weights, validator *SchemaValidator, now func() time.Time, log *slog.Logger) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{weights: weights, validator: validator, now: now, log: log}
}

// Reports get a stable content-derived id (UUIDv5) so identical inputs yield
// the identical report id.
var reportNamespace = uuid.MustParse("8e8c6c2e-3f6a-4b0e-9f0d-5a1f2b7c9d41")

// Generate assembles, scores and validates the quality report. Schema
// validation failure is the only fatal error this stage can produce.
func (g *Generator) Generate(in Inputs) (*models.QualityReport, error) {
	report := &models.QualityReport{
		Status:    models.StatusFail,
		BuildInfo: models.BuildInfo{BuildID: in.BuildID, GeneratedBy: "pauli", Version: in.Version},
	}

	var scores []weightedScore

	if in.Tests != nil && in.Tests.Total > 0 {
		report.Analysis.TestAnalysis = &models.TestAnalysis{
			Total:    in.Tests.Total,
			Passed:   in.Tests.Passed,
			Failed:   in.Tests.Failed,
			Skipped:  in.Tests.Skipped,
			PassRate: in.Tests.PassRate(),
		}
		scores = append(scores, weightedScore{g.weights.Tests, in.Tests.PassRate()})
	}

	if in.Logs != nil && in.LogPatterns != nil {
		report.Analysis.LogAnalysis = &models.LogAnalysis{
			ErrorCount:   in.Logs.ErrorCount,
			WarningCount: in.Logs.WarningCount,
			InfoCount:    in.Logs.InfoCount,
			SkippedLines: in.Logs.SkippedLines,
			Patterns:     *in.LogPatterns,
		}
		scores = append(scores, weightedScore{g.weights.Logs, logScore(*in.LogPatterns)})
	}

	if in.Visual != nil && in.Visual.Total > 0 {
		report.Analysis.VisualAnalysis = in.Visual
		scores = append(scores, weightedScore{g.weights.Visual, visualScore(*in.Visual)})
	}

	if in.Validation != nil && in.Validation.Total > 0 {
		report.Analysis.ValidationAnalysis = validationAnalysis(in.Validation)
		scores = append(scores, weightedScore{g.weights.Validation, in.Validation.ValidRate()})
	}

	report.OverallScore = combine(scores)
	report.Status = models.StatusFor(report.OverallScore)
	report.RootCauseHypotheses = in.Hypotheses
	if report.RootCauseHypotheses == nil {
		report.RootCauseHypotheses = []models.TestFailureAnalysis{}
	}
	report.Recommendations = recommendations(report)

	total, critical := countIssues(report)
	report.Summary = models.Summary{
		Timestamp:      g.now().UTC(),
		BuildID:        in.BuildID,
		TotalIssues:    total,
		CriticalIssues: critical,
	}
	report.Summary.ReportID = contentID(report)

	if err := g.validator.Validate(report); err != nil {
		return nil, fmt.Errorf("generated report failed schema validation: %w", err)
	}

	g.log.Info("report generated",
		"score", report.OverallScore, "status", report.Status,
		"issues", total, "critical", critical)
	return report, nil
}

type weightedScore struct {
	weight float64
	score  float64
}

// combine renormalizes the present weights to 100% and folds the sub-scores.
func combine(scores []weightedScore) float64 {
	var weightSum, acc float64
	for _, s := range scores {
		weightSum += s.weight
	}
	if weightSum == 0 {
		return 0
	}
	for _, s := range scores {
		acc += s.score * (s.weight / weightSum)
	}
	return clamp(acc)
}

func logScore(patterns models.LogPatterns) float64 {
	score := 100.0
	score -= min(patterns.ErrorRate.CurrentRate*errorRatePenaltyPerUnit, errorRatePenaltyCap)
	if patterns.ErrorRate.HasSpike {
		score -= spikePenalty
	}
	score -= min(float64(len(patterns.RepeatedExceptions))*repeatedPenaltyEach, repeatedPenaltyCap)
	score -= min(float64(len(patterns.PerformanceWarnings))*perfPenaltyEach, perfPenaltyCap)
	return clamp(score)
}

func visualScore(v models.VisualAnalysis) float64 {
	if v.Total == 0 {
		return 0
	}
	score := float64(v.Passed) / float64(v.Total) * 100
	score -= float64(v.Minor) * minorPenalty
	score -= float64(v.Major) * majorPenalty
	score -= float64(v.Critical) * criticalPenalty
	return clamp(score)
}

func validationAnalysis(v *models.ValidationResults) *models.ValidationAnalysis {
	analysis := &models.ValidationAnalysis{
		Total:     v.Total,
		Valid:     v.Valid,
		Invalid:   v.Invalid,
		ValidRate: v.ValidRate(),
	}
	for i, e := range v.Errors {
		if i == 5 {
			break
		}
		analysis.SampleErrors = append(analysis.SampleErrors, e.File+": "+e.Message)
	}
	return analysis
}

func countIssues(r *models.QualityReport) (total, critical int) {
	if t := r.Analysis.TestAnalysis; t != nil {
		total += t.Failed
	}
	if l := r.Analysis.LogAnalysis; l != nil {
		total += len(l.Patterns.RepeatedExceptions) + len(l.Patterns.PerformanceWarnings)
		if l.Patterns.ErrorRate.HasSpike {
			total++
		}
	}
	if v := r.Analysis.VisualAnalysis; v != nil {
		total += v.Minor + v.Major + v.Critical
		critical += v.Critical
	}
	if val := r.Analysis.ValidationAnalysis; val != nil {
		total += val.Invalid
	}
	for _, h := range r.RootCauseHypotheses {
		if h.Severity == "Critical" {
			critical++
		}
	}
	return total, critical
}

// contentID derives a stable report id from the scored content, excluding
// the timestamp so reruns over identical inputs agree.
func contentID(r *models.QualityReport) string {
	seed := fmt.Sprintf("%s|%.4f|%s|%d|%d",
		r.BuildInfo.BuildID, r.OverallScore, r.Status,
		r.Summary.TotalIssues, r.Summary.CriticalIssues)
	for _, h := range r.RootCauseHypotheses {
		seed += "|" + h.TestName
	}
	return uuid.NewSHA1(reportNamespace, []byte(seed)).String()
}

func clamp(v float64) float64 {
	return min(max(v, 0), 100)
}
