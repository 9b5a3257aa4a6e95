// Package stt provides a client for polling-based speech-to-text providers.
//
// The provider contract is three sequential REST calls: upload the raw
// audio, start a transcription job for the uploaded media, then poll the
// job at a fixed interval until it reaches a terminal status. AssemblyAI
// is the bundled implementation.
//
// Example usage:
//
//	client, _ := stt.NewAssemblyAI(
//	    stt.WithAPIKey(os.Getenv("ASSEMBLYAI_API_KEY")),
//	)
//	text, _ := client.Transcribe(ctx, audioFile)
package stt

import (
	"context"
	"io"
)

// Client is the interface for transcription providers.
// All implementations must satisfy this interface so the pipeline can
// swap providers (or a mock) without changes.
type Client interface {
	// Submit uploads raw audio to the provider and returns an opaque
	// upload reference for use with StartJob.
	Submit(ctx context.Context, audio io.Reader) (string, error)

	// StartJob requests transcription of previously uploaded audio and
	// returns the provider's job identifier.
	StartJob(ctx context.Context, uploadRef string) (string, error)

	// AwaitResult polls the job until it reaches a terminal status and
	// returns the transcript text. Polling is a fixed-interval loop
	// bounded by the configured attempt budget; the wait honors ctx
	// cancellation.
	AwaitResult(ctx context.Context, jobID string) (string, error)

	// Transcribe runs Submit, StartJob and AwaitResult in sequence.
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Status is a transcription job status as reported by the provider.
type Status string

// Provider job statuses. Queued and Processing are non-terminal.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal returns true if the status ends the polling loop.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is a snapshot of a transcription job. Jobs are owned by the
// provider; the client only polls them and discards the snapshot once
// a terminal status is observed.
type Job struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}
