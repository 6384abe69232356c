package parser

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/kamilpajak/pauli/pkg/models"
)

// TRXParser parses TRX-style test-run reports.
type TRXParser struct {
	log *slog.Logger
}

// NewTRXParser creates a TRX parser logging through log.
func NewTRXParser(log *slog.Logger) *TRXParser {
	return &TRXParser{log: log}
}

// trxReport represents the raw TRX XML structure.
type trxReport struct {
	XMLName xml.Name   `xml:"TestRun"`
	Results trxResults `xml:"Results"`
}

type trxResults struct {
	UnitTestResults []trxUnitTestResult `xml:"UnitTestResult"`
}

type trxUnitTestResult struct {
	TestName string    `xml:"testName,attr"`
	Outcome  string    `xml:"outcome,attr"`
	Output   trxOutput `xml:"Output"`
}

type trxOutput struct {
	StdOut    string       `xml:"StdOut"`
	ErrorInfo trxErrorInfo `xml:"ErrorInfo"`
}

type trxErrorInfo struct {
	Message    string `xml:"Message"`
	StackTrace string `xml:"StackTrace"`
}

// The test harness threads correlation ids through test output as
// "CorrelationId: <token>".
var correlationIDPattern = regexp.MustCompile(`CorrelationId[:=]\s*([\w-]+)`)

// Parse reads and parses a TRX report file. Only a missing file or a document
// without a TestRun root is an error; malformed records are skipped.
func (p *TRXParser) Parse(path string) (*models.TestResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test results: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses a TRX report from raw bytes.
func (p *TRXParser) ParseBytes(data []byte) (*models.TestResults, error) {
	var raw trxReport
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse test results: %w", err)
	}

	return p.normalize(raw), nil
}

func (p *TRXParser) normalize(raw trxReport) *models.TestResults {
	results := &models.TestResults{}

	for _, r := range raw.Results.UnitTestResults {
		if r.TestName == "" || r.Outcome == "" {
			p.log.Warn("skipping malformed test record",
				"test_name", r.TestName, "outcome", r.Outcome)
			results.SkippedRecords++
			continue
		}

		results.Total++
		switch r.Outcome {
		case "Passed":
			results.Passed++
		case "Failed":
			results.Failed++
			results.Failures = append(results.Failures, models.TestFailure{
				TestName:      r.TestName,
				ErrorMessage:  r.Output.ErrorInfo.Message,
				StackTrace:    r.Output.ErrorInfo.StackTrace,
				CorrelationID: extractCorrelationID(r.Output),
			})
		case "NotExecuted", "Skipped":
			results.Skipped++
		default:
			// Unknown outcomes (Timeout, Aborted, ...) count as failures so
			// they cannot silently pass the gate.
			results.Failed++
			results.Failures = append(results.Failures, models.TestFailure{
				TestName:     r.TestName,
				ErrorMessage: fmt.Sprintf("unexpected outcome %q", r.Outcome),
			})
		}
	}

	return results
}

func extractCorrelationID(out trxOutput) string {
	for _, text := range []string{out.ErrorInfo.Message, out.StdOut} {
		if m := correlationIDPattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
