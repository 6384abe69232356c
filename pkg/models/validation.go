package models

// ValidationError is a single conformance error reported for a generated file.
type ValidationError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResults is the canonical form of a parsed validation report
// (document conformance checks run against the pipeline's output files).
type ValidationResults struct {
	Total          int               `json:"total"`
	Valid          int               `json:"valid"`
	Invalid        int               `json:"invalid"`
	Errors         []ValidationError `json:"errors,omitempty"`
	SkippedEntries int               `json:"skipped_entries,omitempty"`
}

// ValidRate returns the valid percentage in [0,100]. Zero files yields 0.
func (r *ValidationResults) ValidRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Valid) / float64(r.Total) * 100
}
