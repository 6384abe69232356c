package hypothesis

import (
	"context"
	"regexp"
	"strings"

	"github.com/kamilpajak/pauli/pkg/models"
)

// rule maps a known exception-type/message shape to a canned hypothesis.
type rule struct {
	pattern    *regexp.Regexp
	hypothesis string
	confidence string
	severity   string
	actions    []string
}

var rules = []rule{
	{
		pattern:    regexp.MustCompile(`(?i)timeout|timed out|deadline exceeded`),
		hypothesis: "The test exceeded its time budget, which usually points to a slow dependency, an unresponsive external service, or a missing await on an asynchronous operation.",
		confidence: ConfidenceMedium,
		severity:   SeverityMajor,
		actions: []string{
			"Check whether the operation under test recently got slower",
			"Review timeout configuration against realistic latencies",
			"Look for unawaited asynchronous calls in the test path",
		},
	},
	{
		pattern:    regexp.MustCompile(`(?i)NullReference|null pointer|nil pointer|NilError`),
		hypothesis: "A required object was missing at the point of use, typically caused by incomplete test setup or a dependency that failed to initialize.",
		confidence: ConfidenceMedium,
		severity:   SeverityCritical,
		actions: []string{
			"Verify test fixture setup constructs every required dependency",
			"Trace the dereference site in the stack trace back to its initialization",
		},
	},
	{
		pattern:    regexp.MustCompile(`(?i)FileNotFound|DirectoryNotFound|no such file`),
		hypothesis: "The test referenced a file or directory that does not exist in the build environment, often a fixture missing from the build output or an environment-dependent path.",
		confidence: ConfidenceHigh,
		severity:   SeverityMajor,
		actions: []string{
			"Confirm the fixture is copied into the test output directory",
			"Replace absolute paths with paths relative to the test assembly",
		},
	},
	{
		pattern:    regexp.MustCompile(`(?i)connection refused|ECONNREFUSED|socket|network|unreachable`),
		hypothesis: "A network dependency was unreachable during the run, pointing at test-environment infrastructure rather than the code under test.",
		confidence: ConfidenceMedium,
		severity:   SeverityMajor,
		actions: []string{
			"Check the health of services the test depends on",
			"Rerun the test to distinguish infrastructure flake from regression",
		},
	},
	{
		pattern:    regexp.MustCompile(`(?i)assert|expected .* (but|to)|AssertionError`),
		hypothesis: "An assertion mismatch between expected and actual behavior, most often a genuine regression in the code under test or a stale expectation after an intentional change.",
		confidence: ConfidenceMedium,
		severity:   SeverityMajor,
		actions: []string{
			"Compare the expected and actual values in the failure message",
			"Check recent commits touching the code under test",
		},
	},
	{
		pattern:    regexp.MustCompile(`(?i)OutOfMemory|OOM|memory`),
		hypothesis: "The process ran out of memory, suggesting a leak, an unbounded allocation in the code under test, or an undersized build agent.",
		confidence: ConfidenceMedium,
		severity:   SeverityCritical,
		actions: []string{
			"Profile memory usage of the failing scenario",
			"Check whether the build agent's memory limit changed",
		},
	},
}

// RuleEngine is the deterministic local fallback. Same input, same output.
type RuleEngine struct{}

// NewRuleEngine creates the fallback generator.
func NewRuleEngine() *RuleEngine { return &RuleEngine{} }

// Name returns the generator name used in logs.
func (e *RuleEngine) Name() string { return "rules" }

// GenerateHypothesis matches the failure and its log context against known
// patterns. It always succeeds; unmatched failures get a generic hypothesis.
func (e *RuleEngine) GenerateHypothesis(_ context.Context, failure models.TestFailure, logContext []models.LogEntry) (*Hypothesis, error) {
	haystack := failure.ErrorMessage + "\n" + failure.StackTrace
	for _, entry := range logContext {
		if entry.Exception != nil {
			haystack += "\n" + entry.Exception.Type + ": " + entry.Exception.Message
		}
	}

	for _, r := range rules {
		if r.pattern.MatchString(haystack) {
			return &Hypothesis{
				Hypothesis:       r.hypothesis,
				Confidence:       r.confidence,
				Severity:         r.severity,
				SuggestedActions: r.actions,
			}, nil
		}
	}

	return &Hypothesis{
		Hypothesis:       genericHypothesis(failure),
		Confidence:       ConfidenceLow,
		Severity:         SeverityMinor,
		SuggestedActions: []string{"Inspect the failure message and correlated logs manually"},
	}, nil
}

func genericHypothesis(failure models.TestFailure) string {
	if strings.TrimSpace(failure.ErrorMessage) == "" {
		return "The test failed without an error message; inspect the test runner output and correlated logs for the underlying cause."
	}
	return "No known failure pattern matched; the error message suggests a test-specific issue that needs manual review."
}
