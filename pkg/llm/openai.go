package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Generator using the chat completions API.
// It is the alternative backend for deployments without a Gemini key.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// OpenAIOption configures an OpenAI generator.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		o.model = model
	}
}

// WithOpenAILogger sets the structured logger.
func WithOpenAILogger(logger *slog.Logger) OpenAIOption {
	return func(o *OpenAI) {
		o.logger = logger
	}
}

// NewOpenAI creates an OpenAI reply generator. As with Gemini, an empty
// apiKey defers the failure to Generate (ErrNoClient).
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		model:  openai.GPT4oMini,
		logger: slog.Default(),
	}
	if apiKey != "" {
		o.client = openai.NewClient(apiKey)
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "llm.openai")
	return o
}

// Generate issues a single prompt as one user message, no streaming.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if o.client == nil {
		return "", ErrNoClient
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGeneration)
	}

	text := resp.Choices[0].Message.Content
	o.logger.Debug("reply generated", "model", o.model, "prompt_chars", len(prompt), "reply_chars", len(text))
	return text, nil
}

// Verify OpenAI implements Generator at compile time.
var _ Generator = (*OpenAI)(nil)
