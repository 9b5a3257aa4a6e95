// voiceagent: voice-assistant backend chaining speech-to-text,
// reply generation, and speech synthesis behind an HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-voiceagent/internal/config"
	"github.com/teslashibe/go-voiceagent/internal/log"
	"github.com/teslashibe/go-voiceagent/internal/server"
	"github.com/teslashibe/go-voiceagent/pkg/artifact"
	"github.com/teslashibe/go-voiceagent/pkg/llm"
	"github.com/teslashibe/go-voiceagent/pkg/pipeline"
	"github.com/teslashibe/go-voiceagent/pkg/session"
	"github.com/teslashibe/go-voiceagent/pkg/stt"
	"github.com/teslashibe/go-voiceagent/pkg/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "voiceagent:", err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine; real deployments use the environment.
	godotenv.Load()

	cfg := config.Load()
	log.Init(cfg.LogLevel)
	logger := log.L()

	transcriber, err := stt.NewAssemblyAI(
		stt.WithAPIKey(cfg.AssemblyAIKey),
		stt.WithPollInterval(cfg.PollInterval),
		stt.WithMaxPolls(cfg.MaxPolls),
		stt.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("stt: %w", err)
	}

	generator, err := newGenerator(cfg, logger)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	synth, err := tts.NewMurf(
		tts.WithAPIKey(cfg.MurfKey),
		tts.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}
	defer synth.Close()

	artifacts, err := artifact.NewStore(cfg.ArtifactDir)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	pipe := pipeline.New(pipeline.Deps{
		STT:       transcriber,
		LLM:       generator,
		TTS:       synth,
		History:   session.NewMemoryStore(),
		Artifacts: artifacts,
		Logger:    logger,
	})

	srv := server.New(&cfg, pipe, generator, artifacts, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		return srv.Shutdown()
	}
}

// newGenerator selects the reply backend from LLM_PROVIDER.
func newGenerator(cfg config.Config, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		return llm.NewOpenAI(cfg.OpenAIKey, llm.WithOpenAILogger(logger)), nil
	case "gemini", "":
		return llm.NewGemini(cfg.GeminiKey, llm.WithGeminiLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.LLMProvider)
	}
}
