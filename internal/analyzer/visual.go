package analyzer

import (
	"log/slog"

	"github.com/kamilpajak/pauli/pkg/models"
)

// Score drops smaller than this are noise, not a degrading trend.
const trendEpsilon = 0.001

// VisualAnalyzer classifies visual regressions and detects cross-run trends.
type VisualAnalyzer struct {
	log *slog.Logger
}

// NewVisualAnalyzer creates a visual analyzer logging through log.
func NewVisualAnalyzer(log *slog.Logger) *VisualAnalyzer {
	return &VisualAnalyzer{log: log}
}

// Analyze aggregates severity buckets for the current run and, when a prior
// run is supplied, flags tests whose score dropped run-over-run. Trend
// detection never changes a severity bucket; it is a separate signal.
func (a *VisualAnalyzer) Analyze(current *models.SsimResults, prior *models.SsimResults) models.VisualAnalysis {
	analysis := models.VisualAnalysis{Total: len(current.Tests)}

	for _, t := range current.Tests {
		switch t.Regression {
		case models.RegressionCritical:
			analysis.Critical++
		case models.RegressionMajor:
			analysis.Major++
		case models.RegressionMinor:
			analysis.Minor++
		default:
			analysis.Passed++
		}

		if t.Regression != models.RegressionNone {
			analysis.Regressions = append(analysis.Regressions, models.VisualRegression{
				TestName:  t.TestName,
				SsimScore: t.SsimScore,
				Severity:  t.Regression.String(),
			})
		}
	}

	if prior != nil {
		analysis.Trends.DegradingTests = a.detectDegrading(current, prior)
	}

	return analysis
}

func (a *VisualAnalyzer) detectDegrading(current, prior *models.SsimResults) []models.DegradingTest {
	previousScores := make(map[string]float64, len(prior.Tests))
	for _, t := range prior.Tests {
		previousScores[t.TestName] = t.SsimScore
	}

	var degrading []models.DegradingTest
	for _, t := range current.Tests {
		prev, ok := previousScores[t.TestName]
		if !ok {
			continue
		}
		if prev-t.SsimScore > trendEpsilon {
			a.log.Debug("visual score degrading",
				"test", t.TestName, "previous", prev, "current", t.SsimScore)
			degrading = append(degrading, models.DegradingTest{
				TestName:      t.TestName,
				PreviousScore: prev,
				CurrentScore:  t.SsimScore,
			})
		}
	}
	return degrading
}
