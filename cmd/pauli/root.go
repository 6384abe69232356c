package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kamilpajak/pauli/internal/config"
	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/internal/pipeline"
	"github.com/kamilpajak/pauli/pkg/models"
)

const fatalExitCode = 2

var (
	testResultsPath       string
	logsPath              string
	visualResultsPath     string
	validationResultsPath string
	historyPaths          []string
	outputPath            string
	configPath            string
	buildID               string
	baselineErrorRate     float64
	logFormat             string
	verbose               bool
	noAI                  bool
)

var rootCmd = &cobra.Command{
	Use:   "pauli",
	Short: "Build quality gate from test, log and visual-regression artifacts",
	Long: `Pauli ingests unit-test reports, structured log streams and visual-regression
scores from a build, correlates them, and emits a single schema-validated
quality report with a weighted score, a Pass/Warn/Fail status, and AI-assisted
root-cause hypotheses for failing tests.

Exit codes: 0 Pass, 1 Warn, 2 Fail or fatal error.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&testResultsPath, "test-results", "", "Path to TRX test-run report")
	rootCmd.Flags().StringVar(&logsPath, "logs", "", "Path to NDJSON structured log file")
	rootCmd.Flags().StringVar(&visualResultsPath, "visual-results", "", "Path to visual-regression results JSON")
	rootCmd.Flags().StringVar(&validationResultsPath, "validation-results", "", "Path to document-validation results JSON")
	rootCmd.Flags().StringArrayVar(&historyPaths, "history", nil, "Prior visual-results files, most recent first (repeatable)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "quality-report.json", "Report output path")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML config (weights, thresholds)")
	rootCmd.Flags().StringVar(&buildID, "build-id", "", "Build identifier stamped into the report")
	rootCmd.Flags().Float64Var(&baselineErrorRate, "baseline-error-rate", 0, "Baseline errors/hour for spike detection")
	rootCmd.Flags().StringVar(&logFormat, "format", "text", "Log format (text, json)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.Flags().BoolVar(&noAI, "no-ai", false, "Skip the remote hypothesis service, use the rule-based fallback")

	rootCmd.AddCommand(versionCmd)
}

func execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return fatalExitCode
	}
	return exitCode
}

// run leaves the computed exit code here; RunE errors are fatal (exit 2).
var exitCode int

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := logging.New(level, logFormat, os.Stderr)

	if err := config.LoadEnv(); err != nil {
		log.Warn("failed to load .env file", "error", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baselineErrorRate > 0 {
		cfg.BaselineErrorRate = baselineErrorRate
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	spin := startSpinner()
	report, err := pipeline.Run(ctx, pipeline.Params{
		TestResultsPath:       testResultsPath,
		LogsPath:              logsPath,
		VisualResultsPath:     visualResultsPath,
		ValidationResultsPath: validationResultsPath,
		HistoryPaths:          historyPaths,
		OutputPath:            outputPath,
		BuildID:               buildID,
		Version:               version,
		BaselineErrorRate:     cfg.BaselineErrorRate,
		PerfThresholdMS:       cfg.PerfThresholdMS,
		Weights:               cfg.Weights,
		DisableAI:             noAI,
		Log:                   log,
	})
	stopSpinner(spin)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run cancelled, no report written")
		}
		return err
	}

	printSummary(os.Stderr, report)
	exitCode = report.Status.ExitCode()
	return nil
}

func startSpinner() *spinner.Spinner {
	if !isatty.IsTerminal(os.Stderr.Fd()) || verbose || logFormat == "json" {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " analyzing build quality..."
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}

func printSummary(w io.Writer, r *models.QualityReport) {
	statusColor := map[models.Status]*color.Color{
		models.StatusPass: color.New(color.FgGreen, color.Bold),
		models.StatusWarn: color.New(color.FgYellow, color.Bold),
		models.StatusFail: color.New(color.FgRed, color.Bold),
	}[r.Status]

	fmt.Fprintln(w)
	statusColor.Fprintf(w, "  %s", r.Status)
	fmt.Fprintf(w, "  quality score %.1f/100\n\n", r.OverallScore)

	if t := r.Analysis.TestAnalysis; t != nil {
		fmt.Fprintf(w, "  tests       %d/%d passed (%.1f%%)\n", t.Passed, t.Total, t.PassRate)
	}
	if l := r.Analysis.LogAnalysis; l != nil {
		fmt.Fprintf(w, "  logs        %d errors, %d warnings", l.ErrorCount, l.WarningCount)
		if l.Patterns.ErrorRate.HasSpike {
			color.New(color.FgRed).Fprint(w, "  [error-rate spike]")
		}
		fmt.Fprintln(w)
	}
	if v := r.Analysis.VisualAnalysis; v != nil {
		fmt.Fprintf(w, "  visual      %d/%d passed (%d critical, %d major, %d minor)\n",
			v.Passed, v.Total, v.Critical, v.Major, v.Minor)
	}
	if val := r.Analysis.ValidationAnalysis; val != nil {
		fmt.Fprintf(w, "  validation  %d/%d valid\n", val.Valid, val.Total)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		for i, rec := range r.Recommendations {
			if i == 3 {
				fmt.Fprintf(w, "  ... and %d more in the report\n", len(r.Recommendations)-3)
				break
			}
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	fmt.Fprintln(w)
}
