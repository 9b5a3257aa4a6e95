package stt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transcription flow. Each maps to one step of
// the three-call provider contract.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")

	// ErrUpload is returned when the audio upload is rejected or the
	// provider omits the upload reference.
	ErrUpload = errors.New("stt: upload failed")

	// ErrJobStart is returned when the transcription job cannot be
	// created or the provider omits the job identifier.
	ErrJobStart = errors.New("stt: transcription start failed")

	// ErrTranscription is returned when the job reaches the error
	// status. The wrapped message carries the provider's detail.
	ErrTranscription = errors.New("stt: transcription failed")

	// ErrPollTimeout is returned when no terminal status is observed
	// within the poll attempt budget.
	ErrPollTimeout = errors.New("stt: transcription timed out")
)

// APIError represents a non-2xx response from the STT API.
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
	return fmt.Sprintf("stt [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}
