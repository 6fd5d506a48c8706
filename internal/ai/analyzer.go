// Package ai talks to a local Ollama inference endpoint to obtain a priority
// judgment for ticket descriptions. Every failure mode is absorbed: callers
// always receive a complete judgment, tagged with how it was produced.
package ai

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/triage"
)

//go:embed prompt.txt
var systemPrompt string

// Analyzer issues generate calls against Ollama and falls back to the
// deterministic keyword heuristic on any non-ok outcome.
type Analyzer struct {
	baseURL      string
	model        string
	timeout      time.Duration
	probeTimeout time.Duration
	httpClient   *http.Client
	pol          policy.Policy
	logger       *zap.Logger
}

// NewAnalyzer constructs the analyzer from config.
func NewAnalyzer(cfg config.OllamaConfig, pol policy.Policy, logger *zap.Logger) *Analyzer {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Analyzer{
		baseURL:      baseURL,
		model:        cfg.Model,
		timeout:      cfg.Timeout(),
		probeTimeout: cfg.ProbeTimeout(),
		httpClient:   &http.Client{},
		pol:          pol,
		logger:       logger,
	}
}

// BaseURL returns the configured endpoint, for health reporting.
func (a *Analyzer) BaseURL() string {
	return a.baseURL
}

// Available probes the endpoint's liveness via /api/tags.
func (a *Analyzer) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Analyze returns a judgment for the description. The model path is tried
// only when the liveness probe succeeds; unreachable, timed out or
// undecodable responses all yield the fallback heuristic's judgment.
func (a *Analyzer) Analyze(ctx context.Context, description string, tier domain.SLATier, issueType domain.IssueType) (domain.AIJudgment, domain.AnalysisOutcome) {
	if !a.Available(ctx) {
		return a.fallback(description, tier, issueType, domain.OutcomeUnreachable)
	}

	judgment, err := a.generate(ctx, description, tier, issueType)
	switch {
	case err == nil:
		return judgment, domain.OutcomeModel
	case errors.Is(err, context.DeadlineExceeded):
		a.logger.Warn("ai analysis timed out", zap.Duration("timeout", a.timeout))
		return a.fallback(description, tier, issueType, domain.OutcomeTimeout)
	case errors.As(err, new(*decodeError)):
		a.logger.Warn("ai analysis returned undecodable output", zap.Error(err))
		return a.fallback(description, tier, issueType, domain.OutcomeParseError)
	default:
		a.logger.Warn("ai analysis failed", zap.Error(err))
		return a.fallback(description, tier, issueType, domain.OutcomeUnreachable)
	}
}

func (a *Analyzer) fallback(description string, tier domain.SLATier, issueType domain.IssueType, outcome domain.AnalysisOutcome) (domain.AIJudgment, domain.AnalysisOutcome) {
	return triage.FallbackJudgment(description, tier, issueType, a.pol), outcome
}

// decodeError marks responses that arrived but could not be interpreted.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decode model output: %v", e.err) }
func (e *decodeError) Unwrap() error { return e.err }

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (a *Analyzer) generate(ctx context.Context, description string, tier domain.SLATier, issueType domain.IssueType) (domain.AIJudgment, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  a.model,
		System: systemPrompt,
		Prompt: buildPrompt(description, tier, issueType, a.pol),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return domain.AIJudgment{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return domain.AIJudgment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.AIJudgment{}, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return domain.AIJudgment{}, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(raw))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return domain.AIJudgment{}, &decodeError{err: err}
	}
	return decodeJudgment(genResp.Response)
}

// decodeJudgment strictly parses the model's text into a judgment. Anything
// that is not well-formed JSON with an in-range priority is a decode error.
func decodeJudgment(text string) (domain.AIJudgment, error) {
	var judgment domain.AIJudgment
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &judgment); err != nil {
		return domain.AIJudgment{}, &decodeError{err: err}
	}
	if judgment.Priority < 1 || judgment.Priority > 5 {
		return domain.AIJudgment{}, &decodeError{err: fmt.Errorf("priority %d out of range [1,5]", judgment.Priority)}
	}
	return judgment, nil
}

func buildPrompt(description string, tier domain.SLATier, issueType domain.IssueType, pol policy.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Support request: %q\n", description)
	fmt.Fprintf(&b, "Customer SLA tier: %s (baseline priority %d of 4)\n", tier, pol.TierPriorities[tier])
	fmt.Fprintf(&b, "Issue category: %s\n", issueType)
	if pol.IsComplexIssueType(issueType) {
		b.WriteString("This issue category is usually handled by specialists.\n")
	}
	return b.String()
}
