package models

// RegressionSeverity orders visual regressions from none to critical.
type RegressionSeverity int

const (
	RegressionNone RegressionSeverity = iota
	RegressionMinor
	RegressionMajor
	RegressionCritical
)

// String returns the json-facing name of the severity.
func (s RegressionSeverity) String() string {
	switch s {
	case RegressionMinor:
		return "Minor"
	case RegressionMajor:
		return "Major"
	case RegressionCritical:
		return "Critical"
	default:
		return "None"
	}
}

// MarshalText makes the severity serialize as its name.
func (s RegressionSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SsimTestResult is one visual-regression comparison.
type SsimTestResult struct {
	TestName          string             `json:"test_name"`
	SsimScore         float64            `json:"ssim_score"`
	BaselineImagePath string             `json:"baseline_image_path,omitempty"`
	CurrentImagePath  string             `json:"current_image_path,omitempty"`
	Regression        RegressionSeverity `json:"regression"`
}

// SsimResults is the canonical form of a parsed visual-regression document.
type SsimResults struct {
	Tests          []SsimTestResult `json:"tests"`
	SkippedEntries int              `json:"skipped_entries,omitempty"`
}

// ClassifySsim maps a score to a severity. Thresholds are scanned from most
// severe to least so the lowest qualifying bound wins.
func ClassifySsim(score float64) RegressionSeverity {
	switch {
	case score < 0.95:
		return RegressionCritical
	case score < 0.97:
		return RegressionMajor
	case score < 0.99:
		return RegressionMinor
	default:
		return RegressionNone
	}
}
