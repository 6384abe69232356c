package models

import "time"

// LogLevel is a normalized log severity.
type LogLevel string

const (
	LevelError       LogLevel = "Error"
	LevelFatal       LogLevel = "Fatal"
	LevelWarning     LogLevel = "Warning"
	LevelInformation LogLevel = "Information"
	LevelDebug       LogLevel = "Debug"
)

// ExceptionInfo is the parsed exception attached to a log entry.
type ExceptionInfo struct {
	Type       string `json:"type,omitempty"`
	Message    string `json:"message,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// LogEntry is one structured log record.
type LogEntry struct {
	Timestamp     time.Time         `json:"timestamp"`
	Level         LogLevel          `json:"level"`
	Message       string            `json:"message"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
	Exception     *ExceptionInfo    `json:"exception,omitempty"`
}

// LogResults is the canonical form of a parsed log stream.
// Entries keeps file order; EntriesByCorrelationID groups entries that share a
// non-empty correlation id.
type LogResults struct {
	Entries                []LogEntry            `json:"entries"`
	EntriesByCorrelationID map[string][]LogEntry `json:"-"`
	ErrorCount             int                   `json:"error_count"`
	WarningCount           int                   `json:"warning_count"`
	InfoCount              int                   `json:"info_count"`
	SkippedLines           int                   `json:"skipped_lines"`
}

// Span returns the time between the first and last entry carrying a timestamp.
func (r *LogResults) Span() time.Duration {
	var first, last time.Time
	for _, e := range r.Entries {
		if e.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() || e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if last.IsZero() || e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	if first.IsZero() {
		return 0
	}
	return last.Sub(first)
}
