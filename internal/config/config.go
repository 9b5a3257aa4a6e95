// Package config provides environment-driven configuration for go-voiceagent.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the HTTP server and pipeline.
const (
	DefaultPort         = "8080"
	DefaultArtifactDir  = "audio"
	DefaultStaticDir    = "./static"
	DefaultFallbackURL  = "/static/fallback.mp3"
	DefaultPollInterval = 3 * time.Second
	DefaultMaxPolls     = 60
)

// Config holds everything the server needs to run.
type Config struct {
	// HTTP
	Port      string
	StaticDir string

	// Provider credentials
	AssemblyAIKey string
	MurfKey       string
	GeminiKey     string
	OpenAIKey     string

	// LLM backend selection: "gemini" (default) or "openai".
	LLMProvider string

	// Transcription polling
	PollInterval time.Duration
	MaxPolls     int

	// Artifacts
	ArtifactDir string
	FallbackURL string

	// Logging
	LogLevel string
}

// Load reads configuration from the environment.
// Call godotenv.Load first if a .env file should be honored.
func Load() Config {
	return Config{
		Port:          Env("PORT", DefaultPort),
		StaticDir:     Env("STATIC_DIR", DefaultStaticDir),
		AssemblyAIKey: os.Getenv("ASSEMBLYAI_API_KEY"),
		MurfKey:       os.Getenv("MURF_API_KEY"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		LLMProvider:   Env("LLM_PROVIDER", "gemini"),
		PollInterval:  EnvDuration("STT_POLL_INTERVAL", DefaultPollInterval),
		MaxPolls:      EnvInt("STT_MAX_POLLS", DefaultMaxPolls),
		ArtifactDir:   Env("ARTIFACT_DIR", DefaultArtifactDir),
		FallbackURL:   Env("FALLBACK_AUDIO_URL", DefaultFallbackURL),
		LogLevel:      Env("LOG_LEVEL", "info"),
	}
}

// Env returns the value of the environment variable or the fallback.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the integer value of the environment variable or the fallback.
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// EnvDuration returns the duration value of the environment variable or the fallback.
// Accepts Go duration syntax ("3s", "500ms").
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
