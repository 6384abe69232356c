package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamilpajak/pauli/pkg/models"
)

// ValidationParser parses document-conformance result files.
type ValidationParser struct {
	log *slog.Logger
}

// NewValidationParser creates a validation-results parser logging through log.
func NewValidationParser(log *slog.Logger) *ValidationParser {
	return &ValidationParser{log: log}
}

type validationEntry struct {
	File   string   `json:"file"`
	Valid  *bool    `json:"valid"`
	Errors []string `json:"errors"`
}

// Parse reads and parses a validation results file. The document is either a
// bare array of per-file entries or an object with a "results" array.
func (p *ValidationParser) Parse(path string) (*models.ValidationResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read validation results: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses validation results from raw bytes.
func (p *ValidationParser) ParseBytes(data []byte) (*models.ValidationResults, error) {
	var entries []validationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var wrapper struct {
			Results []validationEntry `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse validation results: %w", err)
		}
		entries = wrapper.Results
	}

	results := &models.ValidationResults{}
	for i, e := range entries {
		if e.Valid == nil {
			p.log.Warn("skipping validation entry without verdict", "index", i, "file", e.File)
			results.SkippedEntries++
			continue
		}

		results.Total++
		if *e.Valid {
			results.Valid++
			continue
		}

		results.Invalid++
		if len(e.Errors) == 0 {
			results.Errors = append(results.Errors, models.ValidationError{
				File:    e.File,
				Message: "document failed validation",
			})
			continue
		}
		for _, msg := range e.Errors {
			results.Errors = append(results.Errors, models.ValidationError{
				File:    e.File,
				Message: msg,
			})
		}
	}

	return results, nil
}
