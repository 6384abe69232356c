package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamilpajak/pauli/pkg/models"
)

// Ordered key aliases for each semantic log field. CLEF short keys come after
// the long Serilog names so explicit names win.
var (
	timestampAliases     = []string{"Timestamp", "@t"}
	levelAliases         = []string{"Level", "@l"}
	messageAliases       = []string{"MessageTemplate", "@mt", "Message", "@m"}
	correlationAliases   = []string{"CorrelationId", "correlationId"}
	exceptionAliases     = []string{"Exception", "@x"}
	maxScannerBufferSize = 1024 * 1024
)

// LogLineParser parses NDJSON structured-log streams.
type LogLineParser struct {
	log *slog.Logger
}

// NewLogLineParser creates an NDJSON log parser logging through log.
func NewLogLineParser(log *slog.Logger) *LogLineParser {
	return &LogLineParser{log: log}
}

// Parse reads and parses an NDJSON log file, or every log file in a
// directory (lexical order). Only a missing path is an error; malformed
// lines are counted and skipped, never aborting the scan.
func (p *LogLineParser) Parse(path string) (*models.LogResults, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	results := &models.LogResults{
		EntriesByCorrelationID: make(map[string][]models.LogEntry),
	}

	if !info.IsDir() {
		if err := p.parseFile(path, results); err != nil {
			return nil, err
		}
		return results, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !logFileExtensions[filepath.Ext(e.Name())] {
			continue
		}
		if err := p.parseFile(filepath.Join(path, e.Name()), results); err != nil {
			p.log.Warn("skipping unreadable log file", "file", e.Name(), "error", err)
		}
	}
	return results, nil
}

var logFileExtensions = map[string]bool{
	".ndjson": true,
	".json":   true,
	".clef":   true,
	".log":    true,
}

func (p *LogLineParser) parseFile(path string, results *models.LogResults) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScannerBufferSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			p.log.Warn("skipping malformed log line", "line", lineNo, "error", err)
			results.SkippedLines++
			continue
		}

		entry := p.normalizeEntry(raw)
		results.Entries = append(results.Entries, entry)

		switch entry.Level {
		case models.LevelError, models.LevelFatal:
			results.ErrorCount++
		case models.LevelWarning:
			results.WarningCount++
		case models.LevelInformation:
			results.InfoCount++
		}

		if entry.CorrelationID != "" {
			results.EntriesByCorrelationID[entry.CorrelationID] =
				append(results.EntriesByCorrelationID[entry.CorrelationID], entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	return nil
}

func (p *LogLineParser) normalizeEntry(raw map[string]json.RawMessage) models.LogEntry {
	entry := models.LogEntry{
		Level:         normalizeLevel(stringField(raw, levelAliases)),
		Message:       stringField(raw, messageAliases),
		CorrelationID: stringField(raw, correlationAliases),
	}

	if ts := stringField(raw, timestampAliases); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
	}

	if exc := rawField(raw, exceptionAliases); exc != nil {
		entry.Exception = parseException(exc)
	}

	if props, ok := raw["Properties"]; ok {
		entry.Properties = parseProperties(props)
	} else {
		entry.Properties = inlineProperties(raw)
	}

	return entry
}

// reservedLogKeys are the top-level keys consumed as semantic fields; anything
// else on a line without a Properties wrapper is an inline property.
var reservedLogKeys = func() map[string]bool {
	reserved := map[string]bool{"Properties": true}
	for _, aliases := range [][]string{
		timestampAliases, levelAliases, messageAliases,
		correlationAliases, exceptionAliases,
	} {
		for _, key := range aliases {
			reserved[key] = true
		}
	}
	return reserved
}()

// inlineProperties collects properties carried at the top level, the compact
// CLEF shape. Keys starting with "@" are CLEF-reserved and skipped.
func inlineProperties(raw map[string]json.RawMessage) map[string]string {
	var props map[string]string
	for k, v := range raw {
		if reservedLogKeys[k] || strings.HasPrefix(k, "@") {
			continue
		}
		if props == nil {
			props = make(map[string]string)
		}
		props[k] = stringifyValue(v)
	}
	return props
}

// normalizeLevel folds level strings case-insensitively onto the canonical
// set. Unknown levels pass through unchanged so they stay visible.
func normalizeLevel(level string) models.LogLevel {
	switch strings.ToLower(level) {
	case "error", "err", "e":
		return models.LevelError
	case "fatal", "critical", "f":
		return models.LevelFatal
	case "warning", "warn", "w":
		return models.LevelWarning
	case "information", "info", "i", "":
		return models.LevelInformation
	case "debug", "verbose", "d", "v":
		return models.LevelDebug
	default:
		return models.LogLevel(level)
	}
}

// parseException accepts the two shapes the exception field shows up in:
// a rendered string ("Type: message\n   at frame...") or a structured object.
func parseException(raw json.RawMessage) *models.ExceptionInfo {
	var rendered string
	if err := json.Unmarshal(raw, &rendered); err == nil {
		return parseRenderedException(rendered)
	}

	var obj struct {
		Type       string `json:"Type"`
		ClassName  string `json:"ClassName"`
		Message    string `json:"Message"`
		StackTrace string `json:"StackTrace"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	info := &models.ExceptionInfo{
		Type:       obj.Type,
		Message:    obj.Message,
		StackTrace: obj.StackTrace,
	}
	if info.Type == "" {
		info.Type = obj.ClassName
	}
	return info
}

func parseRenderedException(rendered string) *models.ExceptionInfo {
	if rendered == "" {
		return nil
	}

	firstLine, rest, _ := strings.Cut(rendered, "\n")
	info := &models.ExceptionInfo{StackTrace: strings.TrimSpace(rest)}

	if typ, msg, found := strings.Cut(firstLine, ":"); found {
		info.Type = strings.TrimSpace(typ)
		info.Message = strings.TrimSpace(msg)
	} else {
		info.Type = strings.TrimSpace(firstLine)
	}
	return info
}

// parseProperties flattens the property bag to strings; nested values are
// re-rendered as compact JSON so nothing is dropped.
func parseProperties(raw json.RawMessage) map[string]string {
	var bag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil
	}

	props := make(map[string]string, len(bag))
	for k, v := range bag {
		props[k] = stringifyValue(v)
	}
	return props
}

func stringifyValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

func stringField(raw map[string]json.RawMessage, aliases []string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return ""
}

func rawField(raw map[string]json.RawMessage, aliases []string) json.RawMessage {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			return v
		}
	}
	return nil
}
