package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/teslashibe/go-voiceagent/internal/httpc"
)

const (
	geminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	providerGemini = "gemini"

	// GeminiDefaultModel is the default generation model.
	GeminiDefaultModel = "gemini-2.5-flash"
)

// Gemini implements Generator using the generateContent REST endpoint.
type Gemini struct {
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// GeminiOption configures a Gemini client.
type GeminiOption func(*Gemini)

// WithGeminiModel overrides the default model.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		g.model = model
	}
}

// WithGeminiBaseURL overrides the default API base URL.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(g *Gemini) {
		g.baseURL = url
	}
}

// WithGeminiHTTPClient sets the HTTP client used for provider calls.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) {
		g.client = client
	}
}

// WithGeminiLogger sets the structured logger.
func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(g *Gemini) {
		g.logger = logger
	}
}

// NewGemini creates a Gemini reply generator. An empty apiKey is
// allowed: the client constructs but every Generate call returns
// ErrNoClient, so a keyless deployment degrades instead of crashing.
func NewGemini(apiKey string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:  apiKey,
		model:   GeminiDefaultModel,
		client:  httpc.Client,
		logger:  slog.Default(),
		baseURL: geminiBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "llm.gemini")
	return g
}

// generateContent request/response wire types (subset we use).
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate issues a single prompt to the generative model.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoClient
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", ErrGeneration, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGeneration, err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		message := string(raw)
		if parsed.Error != nil {
			message = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, &APIError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Provider:   providerGemini,
		})
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrGeneration)
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	g.logger.Debug("reply generated", "model", g.model, "prompt_chars", len(prompt), "reply_chars", len(text))
	return text, nil
}

// Verify Gemini implements Generator at compile time.
var _ Generator = (*Gemini)(nil)
