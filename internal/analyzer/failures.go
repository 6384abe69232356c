package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kamilpajak/pauli/internal/hypothesis"
	"github.com/kamilpajak/pauli/pkg/models"
)

const (
	// Cap on log entries gathered per failure so the hypothesis request
	// payload stays bounded.
	logContextLimit = 10

	// Concurrent hypothesis requests in flight; the remote client paces
	// itself on top of this.
	hypothesisWorkers = 4
)

// FailureAnalyzer correlates failed tests with log context and resolves a
// root-cause hypothesis for each through the generator chain.
type FailureAnalyzer struct {
	chain *hypothesis.Chain
	log   *slog.Logger
}

// NewFailureAnalyzer creates a failure analyzer logging through log.
func NewFailureAnalyzer(chain *hypothesis.Chain, log *slog.Logger) *FailureAnalyzer {
	return &FailureAnalyzer{chain: chain, log: log}
}

// Analyze produces one TestFailureAnalysis per failure, in input order. A
// failed hypothesis for one test never aborts the others; only context
// cancellation stops the run.
func (a *FailureAnalyzer) Analyze(ctx context.Context, tests *models.TestResults, logs *models.LogResults) ([]models.TestFailureAnalysis, error) {
	if tests == nil || len(tests.Failures) == 0 {
		return nil, nil
	}

	analyses := make([]models.TestFailureAnalysis, len(tests.Failures))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hypothesisWorkers)
	for i, failure := range tests.Failures {
		i, failure := i, failure
		g.Go(func() error {
			logContext := gatherLogContext(failure, logs)
			a.log.Debug("analyzing failure",
				"test", failure.TestName, "context_entries", len(logContext))

			result, err := a.chain.Generate(ctx, failure, logContext)
			if err != nil {
				return err
			}

			analyses[i] = models.TestFailureAnalysis{
				TestName:         failure.TestName,
				Hypothesis:       result.Hypothesis.Hypothesis,
				Confidence:       result.Hypothesis.Confidence,
				Severity:         result.Hypothesis.Severity,
				SuggestedActions: result.Hypothesis.SuggestedActions,
				UsedFallback:     result.UsedFallback,
				AnalysisError:    result.RemoteError,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return analyses, nil
}

// gatherLogContext prefers the failure's correlation group; without one it
// falls back to a bounded substring match of the test name against messages.
func gatherLogContext(failure models.TestFailure, logs *models.LogResults) []models.LogEntry {
	if logs == nil {
		return nil
	}

	if failure.CorrelationID != "" {
		if group, ok := logs.EntriesByCorrelationID[failure.CorrelationID]; ok {
			if len(group) > logContextLimit {
				group = group[:logContextLimit]
			}
			return group
		}
	}

	// The test name in log messages is usually the bare method name.
	name := failure.TestName
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return nil
	}

	var matched []models.LogEntry
	for _, entry := range logs.Entries {
		if strings.Contains(entry.Message, name) {
			matched = append(matched, entry)
			if len(matched) == logContextLimit {
				break
			}
		}
	}
	return matched
}
