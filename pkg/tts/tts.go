// Package tts provides a unified interface for text-to-speech providers.
//
// The bundled implementation targets Murf's two-endpoint REST contract:
// fetch the voice catalog once, then request generation and download the
// returned audio reference. Providers return complete audio buffers; the
// caller decides where the bytes live.
//
// Example usage:
//
//	provider, _ := tts.NewMurf(
//	    tts.WithAPIKey(os.Getenv("MURF_API_KEY")),
//	)
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3 audio bytes
package tts

import (
	"context"
	"time"
)

// MaxTextLen is the provider's per-request character cap. Synthesize
// silently truncates longer input to exactly this many runes; there is
// no chunking or multi-part synthesis.
const MaxTextLen = 3000

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider
// switching.
type Provider interface {
	// SelectVoice resolves the voice used for synthesis. The bundled
	// provider fetches the catalog and deterministically picks the
	// first entry, caching the result.
	SelectVoice(ctx context.Context) (string, error)

	// Synthesize converts text to a complete audio buffer. Input longer
	// than MaxTextLen runes is truncated before submission.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data (MP3 for the Murf provider).
	Audio []byte

	// VoiceID is the voice the audio was generated with.
	VoiceID string

	// CharCount is the number of characters actually synthesized,
	// after truncation.
	CharCount int

	// Truncated reports whether the input exceeded MaxTextLen.
	Truncated bool

	// LatencyMs is the total generation+download time in milliseconds.
	LatencyMs int64
}

// Duration estimates playback duration assuming ~128kbps MP3.
func (r *AudioResult) Duration() time.Duration {
	const bytesPerSecond = 16000 // 128kbps
	if len(r.Audio) == 0 {
		return 0
	}
	seconds := float64(len(r.Audio)) / bytesPerSecond
	return time.Duration(seconds * float64(time.Second))
}

// Truncate caps text at MaxTextLen runes. Exposed so callers can
// inspect what will actually be submitted.
func Truncate(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= MaxTextLen {
		return text, false
	}
	return string(runes[:MaxTextLen]), true
}

// Voice is one entry of the provider's voice catalog.
type Voice struct {
	VoiceID     string `json:"voiceId"`
	DisplayName string `json:"displayName"`
	Locale      string `json:"locale"`
	Gender      string `json:"gender"`
}
