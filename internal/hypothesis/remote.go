package hypothesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kamilpajak/pauli/pkg/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	callTimeout    = 30 * time.Second
	maxAttempts    = 3
	initialBackoff = time.Second

	// Keeps the request payload bounded no matter how chatty the logs are.
	maxContextEntries = 10
)

// ErrNoCredentials is returned by NewRemoteClientFromEnv when no API key is
// configured. Callers treat it as "use the fallback", not as a failure.
var ErrNoCredentials = errors.New("no hypothesis API key configured")

// RemoteClient generates hypotheses via an OpenAI-compatible chat API.
type RemoteClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewRemoteClientFromEnv builds a client from PAULI_API_KEY/OPENAI_API_KEY,
// PAULI_MODEL and PAULI_API_BASE. Returns ErrNoCredentials when no key is set.
func NewRemoteClientFromEnv(log *slog.Logger) (*RemoteClient, error) {
	apiKey := os.Getenv("PAULI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoCredentials
	}

	model := os.Getenv("PAULI_MODEL")
	if model == "" {
		model = defaultModel
	}
	baseURL := os.Getenv("PAULI_API_BASE")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return NewRemoteClient(apiKey, model, baseURL, log), nil
}

// NewRemoteClient creates a client with explicit settings. Requests are paced
// at 2/s with a small burst to stay inside remote rate limits.
func NewRemoteClient(apiKey, model, baseURL string, log *slog.Logger) *RemoteClient {
	return &RemoteClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		log:        log,
	}
}

// Name returns the generator name used in logs.
func (c *RemoteClient) Name() string { return "remote" }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are an expert test-failure analyst. Given a failed test and related log entries, respond with a single JSON object:
{"hypothesis": "<one-paragraph root cause>", "confidence": "HIGH|MEDIUM|LOW", "severity": "Critical|Major|Minor", "suggested_actions": ["<action>", ...]}
Respond with JSON only, no prose.`

// GenerateHypothesis calls the remote API with timeout, bounded retry and
// backoff. Retries cover network errors, 429 and 5xx; auth and other client
// errors fail immediately.
func (c *RemoteClient) GenerateHypothesis(ctx context.Context, failure models.TestFailure, logContext []models.LogEntry) (*Hypothesis, error) {
	prompt := buildPrompt(failure, logContext)

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		hyp, retryable, err := c.complete(ctx, prompt)
		if err == nil {
			return hyp, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		c.log.Warn("hypothesis request failed, retrying",
			"attempt", attempt, "error", err)
		if attempt < maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("hypothesis request exhausted: %w", lastErr)
}

func (c *RemoteClient) complete(ctx context.Context, prompt string) (*Hypothesis, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.1,
		MaxTokens:      1024,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, false, fmt.Errorf("empty response from model")
	}

	hyp, err := parseHypothesis(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, false, err
	}
	return hyp, false, nil
}

// parseHypothesis decodes the model's JSON answer, tolerating a markdown
// code fence around it. Confidence and severity are normalized onto the
// canonical enums; anything else counts as a malformed hypothesis so the
// caller falls back instead of shipping an invalid report.
func parseHypothesis(content string) (*Hypothesis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var hyp Hypothesis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &hyp); err != nil {
		return nil, fmt.Errorf("model returned malformed hypothesis: %w", err)
	}
	if hyp.Hypothesis == "" {
		return nil, fmt.Errorf("model returned empty hypothesis")
	}

	confidence, ok := normalizeConfidence(hyp.Confidence)
	if !ok {
		return nil, fmt.Errorf("model returned unknown confidence %q", hyp.Confidence)
	}
	severity, ok := normalizeSeverity(hyp.Severity)
	if !ok {
		return nil, fmt.Errorf("model returned unknown severity %q", hyp.Severity)
	}
	hyp.Confidence = confidence
	hyp.Severity = severity
	return &hyp, nil
}

func normalizeConfidence(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case ConfidenceHigh:
		return ConfidenceHigh, true
	case ConfidenceMedium:
		return ConfidenceMedium, true
	case ConfidenceLow:
		return ConfidenceLow, true
	}
	return "", false
}

func normalizeSeverity(s string) (string, bool) {
	for _, canonical := range []string{SeverityCritical, SeverityMajor, SeverityMinor} {
		if strings.EqualFold(strings.TrimSpace(s), canonical) {
			return canonical, true
		}
	}
	return "", false
}

func buildPrompt(failure models.TestFailure, logContext []models.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed test: %s\n", failure.TestName)
	if failure.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", failure.ErrorMessage)
	}
	if failure.StackTrace != "" {
		fmt.Fprintf(&b, "Stack trace:\n%s\n", failure.StackTrace)
	}

	if len(logContext) > maxContextEntries {
		logContext = logContext[:maxContextEntries]
	}
	if len(logContext) > 0 {
		b.WriteString("\nRelated log entries:\n")
		for _, e := range logContext {
			fmt.Fprintf(&b, "[%s] %s %s\n", e.Level, e.Timestamp.Format(time.RFC3339), e.Message)
			if e.Exception != nil {
				fmt.Fprintf(&b, "  exception: %s: %s\n", e.Exception.Type, e.Exception.Message)
			}
		}
	}
	return b.String()
}
