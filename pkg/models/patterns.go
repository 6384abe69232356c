package models

// ErrorRateAnalysis compares the observed error rate against a baseline.
// Rates are errors per hour. SelfBaselined marks the no-signal fallback where
// the observed run supplied its own baseline.
type ErrorRateAnalysis struct {
	CurrentRate   float64 `json:"currentRate"`
	BaselineRate  float64 `json:"baselineRate"`
	HasSpike      bool    `json:"hasSpike"`
	SelfBaselined bool    `json:"selfBaselined,omitempty"`
}

// RepeatedExceptionPattern is a cluster of log entries sharing an exception
// type and normalized message.
type RepeatedExceptionPattern struct {
	ExceptionType     string   `json:"exceptionType"`
	NormalizedMessage string   `json:"normalizedMessage"`
	Count             int      `json:"count"`
	SampleMessages    []string `json:"sampleMessages,omitempty"`
}

// PerformanceWarning flags a log entry whose duration property exceeded the
// configured threshold.
type PerformanceWarning struct {
	Message    string  `json:"message"`
	Property   string  `json:"property"`
	DurationMS float64 `json:"durationMs"`
}

// MissingCorrelation reports entries that carry no correlation id.
type MissingCorrelation struct {
	Count          int      `json:"count"`
	SampleMessages []string `json:"sampleMessages,omitempty"`
}

// LogPatterns is the output of log pattern analysis.
type LogPatterns struct {
	ErrorRate             ErrorRateAnalysis          `json:"errorRate"`
	RepeatedExceptions    []RepeatedExceptionPattern `json:"repeatedExceptions,omitempty"`
	PerformanceWarnings   []PerformanceWarning       `json:"performanceWarnings,omitempty"`
	MissingCorrelationIDs MissingCorrelation         `json:"missingCorrelationIds"`
}

// VisualRegression is one classified comparison in the report.
type VisualRegression struct {
	TestName  string  `json:"testName"`
	SsimScore float64 `json:"ssimScore"`
	Severity  string  `json:"severity"`
}

// DegradingTest flags a test whose score dropped run-over-run.
type DegradingTest struct {
	TestName      string  `json:"testName"`
	PreviousScore float64 `json:"previousScore"`
	CurrentScore  float64 `json:"currentScore"`
}

// VisualTrends carries cross-run signals, separate from severity buckets.
type VisualTrends struct {
	DegradingTests []DegradingTest `json:"degradingTests,omitempty"`
}

// VisualAnalysis is the output of visual-regression analysis.
type VisualAnalysis struct {
	Total       int                `json:"total"`
	Passed      int                `json:"passed"`
	Minor       int                `json:"minor"`
	Major       int                `json:"major"`
	Critical    int                `json:"critical"`
	Regressions []VisualRegression `json:"regressions,omitempty"`
	Trends      VisualTrends       `json:"trends"`
}

// TestFailureAnalysis is the hypothesis produced for one failed test.
type TestFailureAnalysis struct {
	TestName         string   `json:"testName"`
	Hypothesis       string   `json:"hypothesis"`
	Confidence       string   `json:"confidence"`
	Severity         string   `json:"severity"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
	UsedFallback     bool     `json:"usedFallback"`
	AnalysisError    string   `json:"analysisError,omitempty"`
}
