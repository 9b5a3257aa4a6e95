package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	murfBaseURL  = "https://api.murf.ai/v1"
	providerMurf = "murf"
)

// Murf implements Provider for the Murf speech generation API.
//
// Generation is a two-step exchange: POST /speech/generate returns a
// JSON body with an audioFile URL, which is then fetched for the raw
// bytes.
type Murf struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string

	// voice catalog selection is cached after the first success
	voiceMu sync.Mutex
	voiceID string
}

// NewMurf creates a new Murf TTS provider.
func NewMurf(opts ...Option) (*Murf, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = murfBaseURL
	}

	return &Murf{
		config:  cfg,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger.With("component", "tts.murf"),
		baseURL: baseURL,
		voiceID: cfg.VoiceID,
	}, nil
}

// SelectVoice fetches the voice catalog and deterministically picks the
// first entry. The selection is cached for the provider's lifetime; a
// pinned WithVoice ID skips the catalog call entirely.
func (m *Murf) SelectVoice(ctx context.Context) (string, error) {
	m.voiceMu.Lock()
	defer m.voiceMu.Unlock()

	if m.voiceID != "" {
		return m.voiceID, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+"/speech/voices", nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrNoVoices, err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoVoices, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %v", ErrNoVoices, m.parseError(resp))
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return "", fmt.Errorf("%w: decode catalog: %v", ErrNoVoices, err)
	}
	if len(voices) == 0 || voices[0].VoiceID == "" {
		return "", ErrNoVoices
	}

	m.voiceID = voices[0].VoiceID
	m.logger.Debug("voice selected", "voice_id", m.voiceID, "catalog_size", len(voices))
	return m.voiceID, nil
}

// Synthesize converts text to audio. Input beyond MaxTextLen runes is
// silently truncated before submission.
func (m *Murf) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	text, truncated := Truncate(text)
	if truncated {
		m.logger.Info("input over provider cap, truncating", "cap", MaxTextLen)
	}

	voiceID, err := m.SelectVoice(ctx)
	if err != nil {
		return nil, err
	}

	audioURL, err := m.generate(ctx, voiceID, text)
	if err != nil {
		return nil, err
	}

	audio, err := m.download(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start).Milliseconds()
	m.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voiceID,
	)

	return &AudioResult{
		Audio:     audio,
		VoiceID:   voiceID,
		CharCount: len([]rune(text)),
		Truncated: truncated,
		LatencyMs: latency,
	}, nil
}

// Close releases resources held by the provider.
func (m *Murf) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

// generate requests audio generation and returns the audio file URL.
func (m *Murf) generate(ctx context.Context, voiceID, text string) (string, error) {
	payload := map[string]string{
		"voiceId": voiceID,
		"text":    text,
		"format":  m.config.Format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", ErrSynthesis, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/speech/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrSynthesis, err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, m.parseError(resp))
	}

	var parsed struct {
		AudioFile string `json:"audioFile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrSynthesis, err)
	}
	if parsed.AudioFile == "" {
		return "", fmt.Errorf("%w: no audio file returned", ErrSynthesis)
	}

	return parsed.AudioFile, nil
}

// download follows the returned audio reference and reads the bytes.
func (m *Murf) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrDownload, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}
	return audio, nil
}

// setHeaders sets required HTTP headers.
func (m *Murf) setHeaders(req *http.Request) {
	req.Header.Set("api-key", m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("accept", "application/json")
}

// parseError reads and parses an error response.
func (m *Murf) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.ErrorMessage != "" {
			message = errResp.ErrorMessage
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerMurf,
	}
}

// Verify Murf implements Provider at compile time.
var _ Provider = (*Murf)(nil)
