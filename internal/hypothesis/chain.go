package hypothesis

import (
	"context"
	"log/slog"

	"github.com/kamilpajak/pauli/pkg/models"
)

// Chain prefers the remote generator and falls back to the rule engine on any
// remote failure. A nil remote (no credentials, --no-ai) goes straight to the
// fallback, carrying disabledReason so consumers can tell disabled from failed.
type Chain struct {
	remote         Generator
	fallback       Generator
	disabledReason string
	log            *slog.Logger
}

// NewChain builds the generator chain used by the failure analyzer.
// disabledReason explains a nil remote; it is unused otherwise.
func NewChain(remote Generator, fallback Generator, disabledReason string, log *slog.Logger) *Chain {
	return &Chain{remote: remote, fallback: fallback, disabledReason: disabledReason, log: log}
}

// Result is a hypothesis plus how it was obtained.
type Result struct {
	Hypothesis   *Hypothesis
	UsedFallback bool
	// RemoteError carries the remote failure reason when the remote path
	// failed, or the disabled reason when no remote was configured.
	RemoteError string
}

// Generate resolves a hypothesis for one failure. It never returns an error
// from the remote path; the rule engine is total.
func (c *Chain) Generate(ctx context.Context, failure models.TestFailure, logContext []models.LogEntry) (*Result, error) {
	if c.remote != nil {
		hyp, err := c.remote.GenerateHypothesis(ctx, failure, logContext)
		if err == nil {
			return &Result{Hypothesis: hyp}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn("remote hypothesis failed, using fallback",
			"test", failure.TestName, "error", err)

		hyp, ferr := c.fallback.GenerateHypothesis(ctx, failure, logContext)
		if ferr != nil {
			return nil, ferr
		}
		return &Result{Hypothesis: hyp, UsedFallback: true, RemoteError: err.Error()}, nil
	}

	hyp, err := c.fallback.GenerateHypothesis(ctx, failure, logContext)
	if err != nil {
		return nil, err
	}
	return &Result{Hypothesis: hyp, UsedFallback: true, RemoteError: c.disabledReason}, nil
}
