package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/kamilpajak/pauli/pkg/models"
)

// Ordered key aliases for visual-regression result fields.
var (
	testNameAliases  = []string{"testName", "name", "test"}
	ssimScoreAliases = []string{"ssimScore", "score", "ssim"}
	baselineAliases  = []string{"baselineImagePath", "baseline"}
	currentAliases   = []string{"currentImagePath", "current"}
)

// SsimParser parses visual-regression similarity result documents.
type SsimParser struct {
	log *slog.Logger
}

// NewSsimParser creates a visual-regression parser logging through log.
func NewSsimParser(log *slog.Logger) *SsimParser {
	return &SsimParser{log: log}
}

// Parse reads and parses a visual-regression results file.
func (p *SsimParser) Parse(path string) (*models.SsimResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read visual results: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses visual-regression results from raw bytes. The document is
// either a bare array or an object exposing the array under "tests" or
// "results". Elements without a score are dropped with a warning.
func (p *SsimParser) ParseBytes(data []byte) (*models.SsimResults, error) {
	elements, err := resolveElements(data)
	if err != nil {
		return nil, err
	}

	results := &models.SsimResults{}
	for i, el := range elements {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(el, &raw); err != nil {
			p.log.Warn("skipping malformed visual result", "index", i, "error", err)
			results.SkippedEntries++
			continue
		}

		score, ok := numberField(raw, ssimScoreAliases)
		if !ok {
			p.log.Warn("skipping visual result without score", "index", i)
			results.SkippedEntries++
			continue
		}

		if score < 0 || score > 1 {
			clamped := min(max(score, 0), 1)
			p.log.Warn("clamping out-of-range SSIM score",
				"index", i, "score", score, "clamped", clamped)
			score = clamped
		}

		results.Tests = append(results.Tests, models.SsimTestResult{
			TestName:          stringField(raw, testNameAliases),
			SsimScore:         score,
			BaselineImagePath: stringField(raw, baselineAliases),
			CurrentImagePath:  stringField(raw, currentAliases),
			Regression:        models.ClassifySsim(score),
		})
	}

	return results, nil
}

func resolveElements(data []byte) ([]json.RawMessage, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err == nil {
		return elements, nil
	}

	var wrapper struct {
		Tests   []json.RawMessage `json:"tests"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse visual results: %w", err)
	}
	if wrapper.Tests != nil {
		return wrapper.Tests, nil
	}
	return wrapper.Results, nil
}

// numberField accepts either a JSON number or a numeric string.
func numberField(raw map[string]json.RawMessage, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			return n, true
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
