package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/pkg/models"
)

func entryAt(ts time.Time, level models.LogLevel, msg string) models.LogEntry {
	return models.LogEntry{Timestamp: ts, Level: level, Message: msg}
}

func TestLogPatternAnalyzer_ErrorRateSpike(t *testing.T) {
	// 10 errors over exactly one hour against a baseline of 1/h.
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	logs := &models.LogResults{ErrorCount: 10}
	for i := 0; i < 10; i++ {
		logs.Entries = append(logs.Entries,
			entryAt(start.Add(time.Duration(i)*6*time.Minute), models.LevelError, "boom"))
	}
	logs.Entries = append(logs.Entries, entryAt(start.Add(time.Hour), models.LevelInformation, "end"))

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 1.0)

	assert.InDelta(t, 10.0, patterns.ErrorRate.CurrentRate, 0.001)
	assert.Equal(t, 1.0, patterns.ErrorRate.BaselineRate)
	assert.True(t, patterns.ErrorRate.HasSpike)
	assert.False(t, patterns.ErrorRate.SelfBaselined)
}

func TestLogPatternAnalyzer_NoSpikeBelowThreshold(t *testing.T) {
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	logs := &models.LogResults{
		ErrorCount: 2,
		Entries: []models.LogEntry{
			entryAt(start, models.LevelError, "a"),
			entryAt(start.Add(time.Hour), models.LevelError, "b"),
		},
	}

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 1.0)

	// 2/h is exactly 2x the baseline, not above it.
	assert.False(t, patterns.ErrorRate.HasSpike)
}

func TestLogPatternAnalyzer_SelfBaseline(t *testing.T) {
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	logs := &models.LogResults{
		ErrorCount: 5,
		Entries: []models.LogEntry{
			entryAt(start, models.LevelError, "a"),
			entryAt(start.Add(time.Hour), models.LevelError, "b"),
		},
	}

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 0)

	assert.True(t, patterns.ErrorRate.SelfBaselined)
	assert.Equal(t, patterns.ErrorRate.CurrentRate, patterns.ErrorRate.BaselineRate)
	assert.False(t, patterns.ErrorRate.HasSpike)
}

func TestLogPatternAnalyzer_SpanFloor(t *testing.T) {
	// All entries share one timestamp; the minimum span keeps the rate finite.
	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	logs := &models.LogResults{
		ErrorCount: 3,
		Entries: []models.LogEntry{
			entryAt(ts, models.LevelError, "a"),
			entryAt(ts, models.LevelError, "b"),
			entryAt(ts, models.LevelError, "c"),
		},
	}

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 1.0)
	assert.InDelta(t, 180.0, patterns.ErrorRate.CurrentRate, 0.001)
}

func TestLogPatternAnalyzer_RepeatedExceptions(t *testing.T) {
	logs := &models.LogResults{}
	for i := 0; i < 6; i++ {
		logs.Entries = append(logs.Entries, models.LogEntry{
			Message: fmt.Sprintf("render failed attempt %d", i),
			Exception: &models.ExceptionInfo{
				Type:    "System.IO.IOException",
				Message: fmt.Sprintf("cannot open /tmp/render-%d/page.pdf", i),
			},
		})
	}
	// Below the cluster threshold.
	for i := 0; i < 3; i++ {
		logs.Entries = append(logs.Entries, models.LogEntry{
			Message:   "minor",
			Exception: &models.ExceptionInfo{Type: "ArgumentException", Message: "bad arg"},
		})
	}

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 1.0)

	require.Len(t, patterns.RepeatedExceptions, 1)
	cluster := patterns.RepeatedExceptions[0]
	assert.Equal(t, "System.IO.IOException", cluster.ExceptionType)
	assert.Equal(t, 6, cluster.Count)
	// Numeric and path fragments are normalized so the messages cluster.
	assert.NotContains(t, cluster.NormalizedMessage, "render-0")
	assert.Len(t, cluster.SampleMessages, 3)
}

func TestLogPatternAnalyzer_PerformanceWarnings(t *testing.T) {
	logs := &models.LogResults{
		Entries: []models.LogEntry{
			{Message: "slow render", Properties: map[string]string{"ElapsedMs": "6500"}},
			{Message: "fast render", Properties: map[string]string{"ElapsedMs": "120"}},
			{Message: "not a duration", Properties: map[string]string{"PageCount": "9000"}},
		},
	}

	a := NewLogPatternAnalyzer(logging.Discard(), 5000)
	patterns := a.Analyze(logs, 1.0)

	require.Len(t, patterns.PerformanceWarnings, 1)
	assert.Equal(t, "slow render", patterns.PerformanceWarnings[0].Message)
	assert.Equal(t, 6500.0, patterns.PerformanceWarnings[0].DurationMS)
}

func TestLogPatternAnalyzer_MissingCorrelationIDs(t *testing.T) {
	logs := &models.LogResults{}
	for i := 0; i < 15; i++ {
		logs.Entries = append(logs.Entries, models.LogEntry{
			Level:   models.LevelInformation,
			Message: fmt.Sprintf("entry %d", i),
		})
	}
	logs.Entries = append(logs.Entries, models.LogEntry{Message: "tracked", CorrelationID: "x"})

	a := NewLogPatternAnalyzer(logging.Discard(), 0)
	patterns := a.Analyze(logs, 1.0)

	assert.Equal(t, 15, patterns.MissingCorrelationIDs.Count)
	assert.Len(t, patterns.MissingCorrelationIDs.SampleMessages, 10)
}
