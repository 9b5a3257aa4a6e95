// Package server exposes the voice-assistant pipeline over HTTP.
//
// Every audio route is the same parameterized pipeline run with a
// different capability set; the handlers only do input plumbing,
// response shaping, and error mapping.
package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-voiceagent/internal/config"
	"github.com/teslashibe/go-voiceagent/pkg/artifact"
	"github.com/teslashibe/go-voiceagent/pkg/hub"
	"github.com/teslashibe/go-voiceagent/pkg/llm"
	"github.com/teslashibe/go-voiceagent/pkg/pipeline"
)

// Server is the HTTP surface over the pipeline and its collaborators.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	generator llm.Generator
	artifacts *artifact.Store
	events    *hub.Hub
	logger    *slog.Logger
	started   time.Time
}

// New wires the routes. Call Start to begin serving.
func New(cfg *config.Config, pipe *pipeline.Pipeline, generator llm.Generator, artifacts *artifact.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		pipe:      pipe,
		generator: generator,
		artifacts: artifacts,
		events:    hub.New(logger),
		logger:    logger.With("component", "server"),
		started:   time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voiceagent",
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // audio uploads
	})

	app.Use(cors.New())

	app.Static("/static", cfg.StaticDir)

	app.Get("/", s.handleIndex)
	app.Get("/gemini", s.handleGenerateProbe)
	app.Post("/gemini", s.handleGenerate)
	app.Post("/tts/echo/", s.handleEchoVoice)
	app.Post("/echobot/voice/:session_id", s.handleEchoVoiceSession)
	app.Post("/llm/query", s.handleQuery)
	app.Post("/voice/text", s.handleVoiceText)
	app.Post("/gemini/voice/:session_id", s.handleSessionChat)
	app.Get("/play-audio", s.handlePlayAudio)

	app.Get("/api/status", s.handleStatus)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/logs", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the event hub and listens on the configured port.
// Blocks until the listener stops.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// handleEventsWS subscribes a websocket client to the pipeline event feed.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(s.events, c).Run()
}

// publish pushes a pipeline lifecycle event to websocket subscribers.
func (s *Server) publish(eventType, route, sessionID, detail string) {
	if err := s.events.BroadcastJSON(hub.NewEvent(eventType, route, sessionID, detail)); err != nil {
		s.logger.Warn("event broadcast failed", "error", err)
	}
}
