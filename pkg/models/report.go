package models

import "time"

// Status is the overall verdict of a pipeline run.
type Status string

const (
	StatusPass Status = "Pass"
	StatusWarn Status = "Warn"
	StatusFail Status = "Fail"
)

// StatusFor maps an overall score to its verdict.
func StatusFor(score float64) Status {
	switch {
	case score >= 80:
		return StatusPass
	case score >= 60:
		return StatusWarn
	default:
		return StatusFail
	}
}

// ExitCode maps the verdict to the process exit code used for CI gating.
func (s Status) ExitCode() int {
	switch s {
	case StatusPass:
		return 0
	case StatusWarn:
		return 1
	default:
		return 2
	}
}

// Summary is the report header block.
type Summary struct {
	Timestamp      time.Time `json:"timestamp"`
	ReportID       string    `json:"reportId"`
	BuildID        string    `json:"buildId,omitempty"`
	TotalIssues    int       `json:"totalIssues"`
	CriticalIssues int       `json:"criticalIssues"`
}

// BuildInfo identifies the run that produced the report.
type BuildInfo struct {
	BuildID     string `json:"buildId,omitempty"`
	GeneratedBy string `json:"generatedBy"`
	Version     string `json:"version,omitempty"`
}

// TestAnalysis is the report's view of the test run.
type TestAnalysis struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"passRate"`
}

// LogAnalysis is the report's view of the log stream.
type LogAnalysis struct {
	ErrorCount   int         `json:"errorCount"`
	WarningCount int         `json:"warningCount"`
	InfoCount    int         `json:"infoCount"`
	SkippedLines int         `json:"skippedLines"`
	Patterns     LogPatterns `json:"patterns"`
}

// ValidationAnalysis is the report's view of document validation.
type ValidationAnalysis struct {
	Total        int      `json:"total"`
	Valid        int      `json:"valid"`
	Invalid      int      `json:"invalid"`
	ValidRate    float64  `json:"validRate"`
	SampleErrors []string `json:"sampleErrors,omitempty"`
}

// Analysis groups the per-category sections. Absent categories are nil.
type Analysis struct {
	TestAnalysis       *TestAnalysis       `json:"testAnalysis,omitempty"`
	LogAnalysis        *LogAnalysis        `json:"logAnalysis,omitempty"`
	VisualAnalysis     *VisualAnalysis     `json:"visualAnalysis,omitempty"`
	ValidationAnalysis *ValidationAnalysis `json:"validationAnalysis,omitempty"`
}

// QualityReport is the final schema-validated output document.
type QualityReport struct {
	Summary             Summary               `json:"summary"`
	OverallScore        float64               `json:"overallScore"`
	Status              Status                `json:"status"`
	BuildInfo           BuildInfo             `json:"buildInfo"`
	Analysis            Analysis              `json:"analysis"`
	RootCauseHypotheses []TestFailureAnalysis `json:"rootCauseHypotheses"`
	Recommendations     []string              `json:"recommendations"`
}
