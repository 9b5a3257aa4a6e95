// Package llm provides reply generation clients for the voice pipelines.
//
// A Generator turns a single free-form prompt into a single free-form
// reply: no streaming, no retries, no token negotiation beyond what the
// provider enforces. Gemini (REST generateContent) is the primary
// backend; OpenAI chat completions is available as an alternative.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Generator is the interface for reply generation providers.
type Generator interface {
	// Generate issues a single prompt and returns the provider's reply
	// text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sentinel errors for reply generation.
var (
	// ErrNoClient is returned when no credential/client is configured.
	// A missing key is a deployment problem, not a provider failure.
	ErrNoClient = errors.New("llm: client not configured (API key missing)")

	// ErrGeneration is returned when the provider call fails or
	// returns no usable candidate.
	ErrGeneration = errors.New("llm: generation failed")
)

// APIError represents a non-2xx response from an LLM API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}
