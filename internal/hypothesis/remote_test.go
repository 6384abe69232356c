package hypothesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/pauli/internal/logging"
	"github.com/kamilpajak/pauli/pkg/models"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestRemoteClient_GenerateHypothesis(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		chatReply(t, w, `{"hypothesis":"fixture missing from output dir","confidence":"HIGH","severity":"Major","suggested_actions":["copy fixture"]}`)
	}))
	defer srv.Close()

	c := NewRemoteClient("test-key", "test-model", srv.URL, logging.Discard())
	hyp, err := c.GenerateHypothesis(context.Background(),
		models.TestFailure{TestName: "t", ErrorMessage: "FileNotFoundException"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "fixture missing from output dir", hyp.Hypothesis)
	assert.Equal(t, "HIGH", hyp.Confidence)
	assert.Equal(t, "Major", hyp.Severity)
	assert.Equal(t, []string{"copy fixture"}, hyp.SuggestedActions)
}

func TestRemoteClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "upstream hiccup", http.StatusInternalServerError)
			return
		}
		chatReply(t, w, `{"hypothesis":"recovered","confidence":"LOW","severity":"Minor","suggested_actions":[]}`)
	}))
	defer srv.Close()

	c := NewRemoteClient("k", "m", srv.URL, logging.Discard())
	hyp, err := c.GenerateHypothesis(context.Background(), models.TestFailure{TestName: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "recovered", hyp.Hypothesis)
}

func TestRemoteClient_AuthErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewRemoteClient("k", "m", srv.URL, logging.Discard())
	_, err := c.GenerateHypothesis(context.Background(), models.TestFailure{TestName: "t"}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRemoteClient_MalformedHypothesis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `sure! here is my analysis in prose`)
	}))
	defer srv.Close()

	c := NewRemoteClient("k", "m", srv.URL, logging.Discard())
	_, err := c.GenerateHypothesis(context.Background(), models.TestFailure{TestName: "t"}, nil)
	assert.Error(t, err)
}

func TestParseHypothesis_CodeFence(t *testing.T) {
	hyp, err := parseHypothesis("```json\n{\"hypothesis\":\"h\",\"confidence\":\"LOW\",\"severity\":\"Minor\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "h", hyp.Hypothesis)
}

func TestParseHypothesis_NormalizesEnums(t *testing.T) {
	hyp, err := parseHypothesis(`{"hypothesis":"h","confidence":"high","severity":"major"}`)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceHigh, hyp.Confidence)
	assert.Equal(t, SeverityMajor, hyp.Severity)
}

func TestParseHypothesis_RejectsUnknownEnums(t *testing.T) {
	_, err := parseHypothesis(`{"hypothesis":"h","confidence":"HIGH","severity":"medium"}`)
	assert.Error(t, err)

	_, err = parseHypothesis(`{"hypothesis":"h","confidence":"certain","severity":"Minor"}`)
	assert.Error(t, err)

	_, err = parseHypothesis(`{"hypothesis":"h"}`)
	assert.Error(t, err)
}

func TestNewRemoteClientFromEnv_NoCredentials(t *testing.T) {
	t.Setenv("PAULI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewRemoteClientFromEnv(logging.Discard())
	assert.ErrorIs(t, err, ErrNoCredentials)
}
