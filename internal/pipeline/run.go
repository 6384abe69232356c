// Package pipeline orchestrates a single quality-analysis run: concurrent
// parsing, analysis, report generation and output.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kamilpajak/pauli/internal/analyzer"
	"github.com/kamilpajak/pauli/internal/hypothesis"
	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/internal/parser"
	"github.com/kamilpajak/pauli/internal/report"
	"github.com/kamilpajak/pauli/pkg/models"
)

// ErrNoSources is the fatal configuration error for a run with no inputs.
var ErrNoSources = errors.New("no input sources supplied; provide at least one of --test-results, --logs, --visual-results, --validation-results")

// Params configures a pipeline run. Empty source paths mark absent sources.
type Params struct {
	TestResultsPath       string
	LogsPath              string
	VisualResultsPath     string
	ValidationResultsPath string
	// HistoryPaths are prior visual-results files, most recent first; only
	// the most recent is used for trend detection.
	HistoryPaths []string

	OutputPath        string
	BuildID           string
	Version           string
	BaselineErrorRate float64
	PerfThresholdMS   float64
	Weights           report.Weights

	// DisableAI forces the deterministic fallback hypothesis path.
	DisableAI bool

	// Now is the report clock; nil means time.Now. Tests pin it.
	Now func() time.Time

	Log *slog.Logger
}

// Run executes the full pipeline and returns the generated report. Fatal
// errors (no sources, schema failure, cancellation) abort without writing
// output; everything else degrades.
func Run(ctx context.Context, p Params) (*models.QualityReport, error) {
	if p.TestResultsPath == "" && p.LogsPath == "" &&
		p.VisualResultsPath == "" && p.ValidationResultsPath == "" {
		return nil, ErrNoSources
	}
	log := p.Log
	if log == nil {
		log = logging.Discard()
	}

	validator, err := report.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	sources := parseSources(ctx, p, log)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Analyzers only read their own parser's output, so they may overlap.
	var (
		patterns *models.LogPatterns
		visual   *models.VisualAnalysis
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if sources.logs == nil {
			return nil
		}
		la := analyzer.NewLogPatternAnalyzer(logging.Component(log, "logpatterns"), p.PerfThresholdMS)
		result := la.Analyze(sources.logs, p.BaselineErrorRate)
		patterns = &result
		return nil
	})
	g.Go(func() error {
		if sources.visual == nil {
			return nil
		}
		va := analyzer.NewVisualAnalyzer(logging.Component(log, "visual"))
		result := va.Analyze(sources.visual, sources.priorVisual)
		visual = &result
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	hypotheses, err := analyzeFailures(ctx, p, log, sources)
	if err != nil {
		return nil, err
	}

	gen := report.NewGenerator(p.Weights, validator, p.Now, logging.Component(log, "report"))
	qualityReport, err := gen.Generate(report.Inputs{
		Tests:       sources.tests,
		Logs:        sources.logs,
		LogPatterns: patterns,
		Visual:      visual,
		Validation:  sources.validation,
		Hypotheses:  hypotheses,
		BuildID:     p.BuildID,
		Version:     p.Version,
	})
	if err != nil {
		return nil, err
	}

	if p.OutputPath != "" {
		if err := writeReport(p.OutputPath, qualityReport); err != nil {
			return nil, err
		}
		log.Info("report written", "path", p.OutputPath)
	}

	return qualityReport, nil
}

// parsedSources holds the owned, immutable canonical models. Nil members are
// absent or degraded sources.
type parsedSources struct {
	tests       *models.TestResults
	logs        *models.LogResults
	visual      *models.SsimResults
	priorVisual *models.SsimResults
	validation  *models.ValidationResults
}

// parseSources runs each supplied parser concurrently. A parser failure
// degrades that source to absent with a warning; it never aborts the run.
func parseSources(ctx context.Context, p Params, log *slog.Logger) *parsedSources {
	sources := &parsedSources{}

	g, _ := errgroup.WithContext(ctx)
	if p.TestResultsPath != "" {
		g.Go(func() error {
			tp := parser.NewTRXParser(logging.Component(log, "trx"))
			results, err := tp.Parse(p.TestResultsPath)
			if err != nil {
				log.Warn("test results degraded to empty", "path", p.TestResultsPath, "error", err)
				return nil
			}
			sources.tests = results
			return nil
		})
	}
	if p.LogsPath != "" {
		g.Go(func() error {
			lp := parser.NewLogLineParser(logging.Component(log, "logs"))
			results, err := lp.Parse(p.LogsPath)
			if err != nil {
				log.Warn("logs degraded to empty", "path", p.LogsPath, "error", err)
				return nil
			}
			sources.logs = results
			return nil
		})
	}
	if p.VisualResultsPath != "" {
		g.Go(func() error {
			sp := parser.NewSsimParser(logging.Component(log, "ssim"))
			results, err := sp.Parse(p.VisualResultsPath)
			if err != nil {
				log.Warn("visual results degraded to empty", "path", p.VisualResultsPath, "error", err)
				return nil
			}
			sources.visual = results

			if len(p.HistoryPaths) > 0 {
				prior, err := sp.Parse(p.HistoryPaths[0])
				if err != nil {
					log.Warn("prior visual run ignored", "path", p.HistoryPaths[0], "error", err)
					return nil
				}
				sources.priorVisual = prior
			}
			return nil
		})
	}
	if p.ValidationResultsPath != "" {
		g.Go(func() error {
			vp := parser.NewValidationParser(logging.Component(log, "validation"))
			results, err := vp.Parse(p.ValidationResultsPath)
			if err != nil {
				log.Warn("validation results degraded to empty", "path", p.ValidationResultsPath, "error", err)
				return nil
			}
			sources.validation = results
			return nil
		})
	}
	_ = g.Wait() // workers only ever return nil

	return sources
}

func analyzeFailures(ctx context.Context, p Params, log *slog.Logger, sources *parsedSources) ([]models.TestFailureAnalysis, error) {
	var (
		remote         hypothesis.Generator
		disabledReason string
	)
	if p.DisableAI {
		disabledReason = "remote hypothesis path disabled"
		log.Info("AI hypothesis path disabled, using rule-based fallback")
	} else {
		client, err := hypothesis.NewRemoteClientFromEnv(logging.Component(log, "hypothesis"))
		switch {
		case errors.Is(err, hypothesis.ErrNoCredentials):
			disabledReason = "no hypothesis credentials configured"
			log.Warn("no hypothesis credentials configured, using rule-based fallback")
		case err != nil:
			return nil, err
		default:
			remote = client
		}
	}

	chain := hypothesis.NewChain(remote, hypothesis.NewRuleEngine(), disabledReason, logging.Component(log, "hypothesis"))
	fa := analyzer.NewFailureAnalyzer(chain, logging.Component(log, "failures"))
	return fa.Analyze(ctx, sources.tests, sources.logs)
}

// writeReport serializes the report once, at the very end of the run.
func writeReport(path string, r *models.QualityReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
