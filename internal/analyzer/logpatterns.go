package analyzer

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/kamilpajak/pauli/pkg/models"
)

const (
	// Minimum observed span used for rate math so a burst of entries with
	// near-identical timestamps cannot divide by zero.
	minObservedSpan = time.Minute

	spikeFactor            = 2.0
	repeatedExceptionMin   = 6 // count > 5 per the clustering rule
	exceptionSampleLimit   = 3
	missingCorrelationCap  = 10
	defaultPerfThresholdMS = 5000
)

var (
	numberPattern = regexp.MustCompile(`\d+`)
	pathPattern   = regexp.MustCompile(`(?:[A-Za-z]:)?[\\/][\w.\\/-]+`)
	durationKey   = regexp.MustCompile(`(?i)^(elapsed|duration)(_?ms)?$`)
)

// LogPatternAnalyzer detects anomalies in a parsed log stream.
type LogPatternAnalyzer struct {
	log             *slog.Logger
	perfThresholdMS float64
}

// NewLogPatternAnalyzer creates an analyzer logging through log. A
// non-positive perfThresholdMS selects the default of 5000ms.
func NewLogPatternAnalyzer(log *slog.Logger, perfThresholdMS float64) *LogPatternAnalyzer {
	if perfThresholdMS <= 0 {
		perfThresholdMS = defaultPerfThresholdMS
	}
	return &LogPatternAnalyzer{log: log, perfThresholdMS: perfThresholdMS}
}

// Analyze runs all pattern detectors. baselineRate is errors/hour; a
// non-positive value means no baseline was supplied and the observed run
// baselines itself.
func (a *LogPatternAnalyzer) Analyze(logs *models.LogResults, baselineRate float64) models.LogPatterns {
	patterns := models.LogPatterns{
		ErrorRate:             a.analyzeErrorRate(logs, baselineRate),
		RepeatedExceptions:    a.clusterExceptions(logs),
		PerformanceWarnings:   a.findPerformanceWarnings(logs),
		MissingCorrelationIDs: collectMissingCorrelation(logs),
	}
	return patterns
}

func (a *LogPatternAnalyzer) analyzeErrorRate(logs *models.LogResults, baselineRate float64) models.ErrorRateAnalysis {
	span := logs.Span()
	if span < minObservedSpan {
		span = minObservedSpan
	}
	currentRate := float64(logs.ErrorCount) / span.Hours()

	analysis := models.ErrorRateAnalysis{
		CurrentRate:  currentRate,
		BaselineRate: baselineRate,
	}

	if baselineRate <= 0 {
		// No-signal fallback: the run baselines itself, so a spike can
		// never fire. Surfaced in the report so readers know.
		analysis.BaselineRate = currentRate
		analysis.SelfBaselined = true
		a.log.Warn("no baseline error rate supplied, self-baselining",
			"observed_rate", currentRate)
		return analysis
	}

	analysis.HasSpike = currentRate > spikeFactor*baselineRate
	return analysis
}

func (a *LogPatternAnalyzer) clusterExceptions(logs *models.LogResults) []models.RepeatedExceptionPattern {
	type cluster struct {
		pattern models.RepeatedExceptionPattern
		order   int
	}
	clusters := make(map[string]*cluster)

	for _, entry := range logs.Entries {
		if entry.Exception == nil {
			continue
		}
		normalized := normalizeExceptionMessage(entry.Exception.Message)
		key := entry.Exception.Type + "|" + normalized

		c, ok := clusters[key]
		if !ok {
			c = &cluster{
				pattern: models.RepeatedExceptionPattern{
					ExceptionType:     entry.Exception.Type,
					NormalizedMessage: normalized,
				},
				order: len(clusters),
			}
			clusters[key] = c
		}
		c.pattern.Count++
		if len(c.pattern.SampleMessages) < exceptionSampleLimit {
			c.pattern.SampleMessages = append(c.pattern.SampleMessages, entry.Message)
		}
	}

	var ordered []*cluster
	for _, c := range clusters {
		if c.pattern.Count >= repeatedExceptionMin {
			ordered = append(ordered, c)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	patterns := make([]models.RepeatedExceptionPattern, 0, len(ordered))
	for _, c := range ordered {
		patterns = append(patterns, c.pattern)
	}
	return patterns
}

// normalizeExceptionMessage strips volatile substrings (numbers, paths) so
// messages differing only in ids or file names cluster together.
func normalizeExceptionMessage(msg string) string {
	msg = pathPattern.ReplaceAllString(msg, "<path>")
	msg = numberPattern.ReplaceAllString(msg, "#")
	return msg
}

func (a *LogPatternAnalyzer) findPerformanceWarnings(logs *models.LogResults) []models.PerformanceWarning {
	var warnings []models.PerformanceWarning
	for _, entry := range logs.Entries {
		keys := make([]string, 0, len(entry.Properties))
		for key := range entry.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !durationKey.MatchString(key) {
				continue
			}
			ms, err := strconv.ParseFloat(entry.Properties[key], 64)
			if err != nil || ms <= a.perfThresholdMS {
				continue
			}
			warnings = append(warnings, models.PerformanceWarning{
				Message:    entry.Message,
				Property:   key,
				DurationMS: ms,
			})
		}
	}
	return warnings
}

func collectMissingCorrelation(logs *models.LogResults) models.MissingCorrelation {
	missing := models.MissingCorrelation{}
	for _, entry := range logs.Entries {
		if entry.CorrelationID != "" {
			continue
		}
		missing.Count++
		if len(missing.SampleMessages) < missingCorrelationCap {
			missing.SampleMessages = append(missing.SampleMessages,
				fmt.Sprintf("[%s] %s", entry.Level, entry.Message))
		}
	}
	return missing
}
