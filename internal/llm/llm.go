// Package llm drives the analysis-synthesis half of C4: it builds the
// synthesis prompt from an event, the metals knowledge base, matched
// historical cases, and the discovery result, calls an external chat
// collaborator, and normalises the returned JSON into a
// domain.AnalysisResult ready for persistence. The request/response shape
// is grounded on the chat-completions contract described for the system's
// optional LLM collaborator; the HTTP call itself reuses
// internal/httpfetch's pooled client the way every other ingestor does.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/satriapamudji/meridian/internal/httpfetch"
)

// Config selects the collaborator endpoint and model.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	AppName     string
	AppURL      string
	Temperature float64
	MaxTokens   int
}

// Collaborator synthesizes an analysis for one macro event from a prebuilt
// prompt.
type Collaborator interface {
	Synthesize(ctx context.Context, prompt string) (RawSynthesis, error)
}

// RawSynthesis is the collaborator's response, decoded but not yet
// normalised.
type RawSynthesis struct {
	RawFacts            []string                  `json:"raw_facts"`
	MetalImpacts        map[string]MetalImpactRaw `json:"metal_impacts"`
	HistoricalPrecedent string                    `json:"historical_precedent"`
	CounterCase         string                    `json:"counter_case"`
	CryptoTransmission  CryptoTransmissionRaw      `json:"crypto_transmission"`
	ThesisSeed          string                     `json:"thesis_seed,omitempty"`
	AssetOpportunities  []string                   `json:"asset_opportunities,omitempty"`
}

// MetalImpactRaw is one metal's impact entry before defaulting.
type MetalImpactRaw struct {
	Direction string `json:"direction"`
	Magnitude string `json:"magnitude"`
	Driver    string `json:"driver"`
}

// CryptoTransmissionRaw is the collaborator's crypto transmission verdict
// before alias normalisation.
type CryptoTransmissionRaw struct {
	Exists         bool     `json:"exists"`
	Path           string   `json:"path"`
	Strength       string   `json:"strength"`
	RelevantAssets []string `json:"relevant_assets"`
}

// chatMessage is one entry of a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPCollaborator calls a chat-completions-shaped endpoint over the shared
// client pool.
type HTTPCollaborator struct {
	cfg  Config
	pool *httpfetch.ClientPool
}

// NewHTTPCollaborator builds a Collaborator backed by a real chat-completions
// endpoint.
func NewHTTPCollaborator(cfg Config, pool *httpfetch.ClientPool) *HTTPCollaborator {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	return &HTTPCollaborator{cfg: cfg, pool: pool}
}

// Synthesize posts the prompt as a single user message and decodes the
// first choice's content as a RawSynthesis JSON blob.
func (c *HTTPCollaborator) Synthesize(ctx context.Context, prompt string) (RawSynthesis, error) {
	if c.cfg.APIKey == "" {
		return RawSynthesis{}, fmt.Errorf("llm: no API key configured")
	}

	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}
	if c.cfg.AppURL != "" {
		headers["HTTP-Referer"] = c.cfg.AppURL
	}
	if c.cfg.AppName != "" {
		headers["X-Title"] = c.cfg.AppName
	}

	var resp chatResponse
	if err := c.pool.PostJSON(ctx, c.cfg.BaseURL, headers, req, &resp); err != nil {
		return RawSynthesis{}, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return RawSynthesis{}, fmt.Errorf("llm: chat completion returned no choices")
	}

	var out RawSynthesis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return RawSynthesis{}, fmt.Errorf("llm: decode synthesis content: %w", err)
	}
	return out, nil
}
