package models

// TestFailure describes a single failed test, immutable once parsed.
type TestFailure struct {
	TestName      string `json:"test_name"`
	ErrorMessage  string `json:"error_message,omitempty"`
	StackTrace    string `json:"stack_trace,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// TestResults is the canonical form of a parsed test-run report.
type TestResults struct {
	Total          int           `json:"total"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Failures       []TestFailure `json:"failures,omitempty"`
	SkippedRecords int           `json:"skipped_records,omitempty"`
}

// PassRate returns the pass percentage in [0,100]. Zero tests yields 0.
func (r *TestResults) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

// HasFailures returns true if the run contains any failures.
func (r *TestResults) HasFailures() bool {
	return r.Failed > 0
}
