package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	assemblyAIBaseURL  = "https://api.assemblyai.com/v2"
	providerAssemblyAI = "assemblyai"
)

// AssemblyAI implements Client for the AssemblyAI transcription API.
type AssemblyAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewAssemblyAI creates a new AssemblyAI transcription client.
func NewAssemblyAI(opts ...Option) (*AssemblyAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = assemblyAIBaseURL
	}

	return &AssemblyAI{
		config:  cfg,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger.With("component", "stt.assemblyai"),
		baseURL: baseURL,
	}, nil
}

// Submit uploads raw audio and returns the provider's upload URL.
func (a *AssemblyAI) Submit(ctx context.Context, audio io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/upload", audio)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrUpload, err)
	}
	req.Header.Set("authorization", a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: %v", ErrUpload, a.parseError(resp))
	}

	var parsed struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	if parsed.UploadURL == "" {
		return "", fmt.Errorf("%w: upload URL missing", ErrUpload)
	}

	a.logger.Debug("audio uploaded", "upload_url", parsed.UploadURL)
	return parsed.UploadURL, nil
}

// StartJob creates a transcription job for the uploaded audio.
func (a *AssemblyAI) StartJob(ctx context.Context, uploadRef string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": uploadRef})
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", ErrJobStart, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrJobStart, err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrJobStart, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: %v", ErrJobStart, a.parseError(resp))
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrJobStart, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("%w: job ID missing", ErrJobStart)
	}

	a.logger.Debug("transcription started", "job_id", job.ID)
	return job.ID, nil
}

// AwaitResult polls the job at the configured fixed interval until it
// reaches a terminal status. It returns ErrPollTimeout after exactly
// MaxPolls attempts without a terminal status.
func (a *AssemblyAI) AwaitResult(ctx context.Context, jobID string) (string, error) {
	start := time.Now()

	for attempt := 1; attempt <= a.config.MaxPolls; attempt++ {
		job, err := a.poll(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch job.Status {
		case StatusCompleted:
			a.logger.Debug("transcription completed",
				"job_id", jobID,
				"attempts", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return job.Text, nil
		case StatusError:
			return "", fmt.Errorf("%w: %s", ErrTranscription, job.Error)
		}

		// Non-terminal: wait out the fixed interval unless the budget
		// is spent or the request is cancelled.
		if attempt == a.config.MaxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.config.PollInterval):
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrPollTimeout, a.config.MaxPolls)
}

// Transcribe runs the full three-call flow: upload, start, await.
func (a *AssemblyAI) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	uploadRef, err := a.Submit(ctx, audio)
	if err != nil {
		return "", err
	}

	jobID, err := a.StartJob(ctx, uploadRef)
	if err != nil {
		return "", err
	}

	return a.AwaitResult(ctx, jobID)
}

// poll fetches a single job status snapshot.
func (a *AssemblyAI) poll(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTranscription, err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, a.parseError(resp))
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTranscription, err)
	}
	return &job, nil
}

// setHeaders sets required HTTP headers.
func (a *AssemblyAI) setHeaders(req *http.Request) {
	req.Header.Set("authorization", a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// parseError reads and parses an error response.
func (a *AssemblyAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerAssemblyAI,
	}
}

// Verify AssemblyAI implements Client at compile time.
var _ Client = (*AssemblyAI)(nil)
