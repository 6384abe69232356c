package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	validator, err := NewSchemaValidator()
	require.NoError(t, err)
	return NewGenerator(DefaultWeights(), validator, fixedClock, logging.Discard())
}

func TestGenerator_TestsOnly(t *testing.T) {
	gen := newTestGenerator(t)

	report, err := gen.Generate(Inputs{
		Tests: &models.TestResults{Total: 10, Passed: 8, Failed: 2},
	})
	require.NoError(t, err)

	// The only present category carries the full weight.
	assert.InDelta(t, 80.0, report.OverallScore, 0.001)
	assert.Equal(t, models.StatusPass, report.Status)
	require.NotNil(t, report.Analysis.TestAnalysis)
	assert.InDelta(t, 80.0, report.Analysis.TestAnalysis.PassRate, 0.001)
	assert.Nil(t, report.Analysis.LogAnalysis)
	assert.Nil(t, report.Analysis.VisualAnalysis)
	assert.Nil(t, report.Analysis.ValidationAnalysis)
}

func TestGenerator_WeightRedistribution(t *testing.T) {
	gen := newTestGenerator(t)

	// Tests at 100, clean logs at 100: any redistribution must still give 100.
	report, err := gen.Generate(Inputs{
		Tests:       &models.TestResults{Total: 4, Passed: 4},
		Logs:        &models.LogResults{},
		LogPatterns: &models.LogPatterns{},
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, report.OverallScore, 0.001)

	// Tests 50, logs 100 with weights 40/30 renormalized to 4/7 and 3/7.
	report, err = gen.Generate(Inputs{
		Tests:       &models.TestResults{Total: 4, Passed: 2, Failed: 2},
		Logs:        &models.LogResults{},
		LogPatterns: &models.LogPatterns{},
	})
	require.NoError(t, err)
	want := 50.0*(40.0/70.0) + 100.0*(30.0/70.0)
	assert.InDelta(t, want, report.OverallScore, 0.001)
}

func TestGenerator_StatusThresholds(t *testing.T) {
	cases := []struct {
		passed, failed int
		want           models.Status
	}{
		{8, 2, models.StatusPass},  // 80
		{7, 3, models.StatusWarn},  // 70
		{6, 4, models.StatusWarn},  // 60
		{5, 5, models.StatusFail},  // 50
		{10, 0, models.StatusPass}, // 100
	}
	gen := newTestGenerator(t)
	for _, tc := range cases {
		report, err := gen.Generate(Inputs{
			Tests: &models.TestResults{Total: tc.passed + tc.failed, Passed: tc.passed, Failed: tc.failed},
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, report.Status, "%d/%d", tc.passed, tc.failed)
	}
}

func TestVisualScore_PenaltiesBelowNaivePassRate(t *testing.T) {
	// Scores [0.99, 0.96, 0.80]: one pass, one major, one critical.
	v := models.VisualAnalysis{Total: 3, Passed: 1, Major: 1, Critical: 1}
	score := visualScore(v)

	naive := 1.0 / 3.0 * 100
	assert.Less(t, score, naive)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestLogScore_Decreasing(t *testing.T) {
	clean := logScore(models.LogPatterns{})
	assert.Equal(t, 100.0, clean)

	spiky := logScore(models.LogPatterns{
		ErrorRate: models.ErrorRateAnalysis{CurrentRate: 10, HasSpike: true},
	})
	assert.InDelta(t, 60.0, spiky, 0.001) // 100 - 20 rate - 20 spike

	worst := logScore(models.LogPatterns{
		ErrorRate: models.ErrorRateAnalysis{CurrentRate: 1000, HasSpike: true},
		RepeatedExceptions: []models.RepeatedExceptionPattern{
			{}, {}, {}, {}, {}, {},
		},
		PerformanceWarnings: make([]models.PerformanceWarning, 20),
	})
	assert.Equal(t, 10.0, worst) // all caps hit: 100-40-20-20-10
}

func TestGenerator_ScoreBounds(t *testing.T) {
	gen := newTestGenerator(t)

	report, err := gen.Generate(Inputs{
		Tests: &models.TestResults{Total: 10, Failed: 10},
		Visual: &models.VisualAnalysis{
			Total: 5, Critical: 5,
			Regressions: []models.VisualRegression{},
		},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.OverallScore, 0.0)
	assert.LessOrEqual(t, report.OverallScore, 100.0)
	assert.Equal(t, models.StatusFail, report.Status)
}

func TestGenerator_DeterministicReportID(t *testing.T) {
	gen := newTestGenerator(t)
	in := Inputs{
		Tests:   &models.TestResults{Total: 10, Passed: 8, Failed: 2},
		BuildID: "build-7",
	}

	first, err := gen.Generate(in)
	require.NoError(t, err)
	second, err := gen.Generate(in)
	require.NoError(t, err)

	assert.Equal(t, first.Summary.ReportID, second.Summary.ReportID)
	assert.Equal(t, first, second)
}

func TestGenerator_IssueCounts(t *testing.T) {
	gen := newTestGenerator(t)

	report, err := gen.Generate(Inputs{
		Tests: &models.TestResults{Total: 10, Passed: 8, Failed: 2},
		Visual: &models.VisualAnalysis{
			Total: 4, Passed: 1, Minor: 1, Major: 1, Critical: 1,
		},
		Hypotheses: []models.TestFailureAnalysis{
			{TestName: "a", Hypothesis: "h", Confidence: "LOW", Severity: "Critical", UsedFallback: true},
			{TestName: "b", Hypothesis: "h", Confidence: "LOW", Severity: "Minor", UsedFallback: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Summary.TotalIssues)    // 2 failed + 3 regressions
	assert.Equal(t, 2, report.Summary.CriticalIssues) // 1 visual + 1 hypothesis
}

func TestGenerator_Recommendations(t *testing.T) {
	gen := newTestGenerator(t)

	report, err := gen.Generate(Inputs{
		Tests: &models.TestResults{Total: 10, Passed: 10},
	})
	require.NoError(t, err)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "No issues")

	report, err = gen.Generate(Inputs{
		Tests: &models.TestResults{Total: 10, Passed: 8, Failed: 2},
	})
	require.NoError(t, err)
	assert.Contains(t, report.Recommendations[0], "2 failing test(s)")
}

func TestSchemaValidator_RejectsInvalidReport(t *testing.T) {
	validator, err := NewSchemaValidator()
	require.NoError(t, err)

	bad := &models.QualityReport{
		Status:              models.Status("Broken"),
		RootCauseHypotheses: []models.TestFailureAnalysis{},
		Recommendations:     []string{},
	}
	assert.Error(t, validator.Validate(bad))
}
