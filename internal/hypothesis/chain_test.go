package hypothesis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/pkg/models"
)

type stubGenerator struct {
	hyp *Hypothesis
	err error
}

func (s *stubGenerator) GenerateHypothesis(context.Context, models.TestFailure, []models.LogEntry) (*Hypothesis, error) {
	return s.hyp, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func TestChain_RemoteSuccess(t *testing.T) {
	remote := &stubGenerator{hyp: &Hypothesis{Hypothesis: "remote said so", Confidence: ConfidenceHigh, Severity: SeverityMinor}}
	chain := NewChain(remote, NewRuleEngine(), "", logging.Discard())

	result, err := chain.Generate(context.Background(), models.TestFailure{TestName: "t"}, nil)
	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
	assert.Empty(t, result.RemoteError)
	assert.Equal(t, "remote said so", result.Hypothesis.Hypothesis)
}

func TestChain_FallsBackOnRemoteError(t *testing.T) {
	remote := &stubGenerator{err: errors.New("API error (429): rate limited")}
	chain := NewChain(remote, NewRuleEngine(), "", logging.Discard())

	result, err := chain.Generate(context.Background(),
		models.TestFailure{TestName: "t", ErrorMessage: "timed out"}, nil)
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.RemoteError, "rate limited")
	assert.NotEmpty(t, result.Hypothesis.Hypothesis)
}

func TestChain_NilRemoteUsesFallback(t *testing.T) {
	chain := NewChain(nil, NewRuleEngine(), "no credentials configured", logging.Discard())

	result, err := chain.Generate(context.Background(), models.TestFailure{TestName: "t"}, nil)
	require.NoError(t, err)
	assert.True(t, result.UsedFallback)

	// The disabled reason surfaces so consumers can tell disabled from failed.
	assert.Equal(t, "no credentials configured", result.RemoteError)
}

func TestChain_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := &stubGenerator{err: context.Canceled}
	chain := NewChain(remote, NewRuleEngine(), "", logging.Discard())

	_, err := chain.Generate(ctx, models.TestFailure{TestName: "t"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
