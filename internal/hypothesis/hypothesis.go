// Package hypothesis produces root-cause hypotheses for failed tests. The
// remote generator calls an OpenAI-compatible chat API; the rule engine is a
// deterministic local fallback. The chain prefers the remote path and
// degrades transparently.
package hypothesis

import (
	"context"

	"github.com/kamilpajak/pauli/pkg/models"
)

// Confidence levels attached to a hypothesis.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Severity levels attached to a hypothesis.
const (
	SeverityCritical = "Critical"
	SeverityMajor    = "Major"
	SeverityMinor    = "Minor"
)

// Hypothesis is a generated explanation for a test failure.
type Hypothesis struct {
	Hypothesis       string   `json:"hypothesis"`
	Confidence       string   `json:"confidence"`
	Severity         string   `json:"severity"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Generator is the hypothesis capability. Implementations must be safe for
// concurrent use; one call per failed test may run in parallel.
type Generator interface {
	GenerateHypothesis(ctx context.Context, failure models.TestFailure, logContext []models.LogEntry) (*Hypothesis, error)
	Name() string
}
