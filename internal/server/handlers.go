package server

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-voiceagent/pkg/pipeline"
)

// textBody is the JSON body of the text routes. Both keys are accepted
// interchangeably.
type textBody struct {
	Prompt string `json:"prompt"`
	Text   string `json:"text"`
}

func (b textBody) value() string {
	if b.Prompt != "" {
		return b.Prompt
	}
	return b.Text
}

// handleIndex serves the browser client.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.SendFile(filepath.Join(s.cfg.StaticDir, "index.html"))
}

// handleGenerateProbe is a liveness probe for the text generation route.
func (s *Server) handleGenerateProbe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "GET on /gemini works! Use POST to send prompts."})
}

// handleGenerate is the text-only generation route: no synthesis, no
// history, just prompt in and reply out.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var body textBody
	if err := c.BodyParser(&body); err != nil || body.value() == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt or text field is required",
		})
	}

	reply, err := s.generator.Generate(c.UserContext(), body.value())
	if err != nil {
		s.publish("error", "/gemini", "", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Failed to generate response",
			"details":    err.Error(),
			"audio_file": s.cfg.FallbackURL,
		})
	}
	return c.JSON(fiber.Map{"response": reply})
}

// handleEchoVoice transcribes the upload and speaks it back.
func (s *Server) handleEchoVoice(c *fiber.Ctx) error {
	res, err := s.runUpload(c, pipeline.EchoVoice, "")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"audio_file": "/play-audio",
		"transcript": res.Transcript,
		"audio_id":   res.Audio.ID,
	})
}

// handleEchoVoiceSession is the session-scoped echo route. The session
// id only tags the event feed; echo keeps no history.
func (s *Server) handleEchoVoiceSession(c *fiber.Ctx) error {
	res, err := s.runUpload(c, pipeline.EchoVoice, c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"transcript": res.Transcript,
		"audio_file": "/play-audio",
		"audio_id":   res.Audio.ID,
	})
}

// handleQuery is dual-mode: multipart audio runs the full stateless
// voice pipeline, a JSON body runs text-only generation.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	contentType := string(c.Request().Header.ContentType())
	if strings.Contains(contentType, "multipart/form-data") {
		res, err := s.runUpload(c, pipeline.VoiceQA, "")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"transcript":   res.Transcript,
			"llm_response": res.Reply,
			"audio_file":   "/play-audio",
			"audio_id":     res.Audio.ID,
		})
	}

	var body textBody
	if err := c.BodyParser(&body); err != nil || body.value() == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Text or prompt field is required",
			"audio_file": s.cfg.FallbackURL,
		})
	}

	reply, err := s.generator.Generate(c.UserContext(), body.value())
	if err != nil {
		s.publish("error", "/llm/query", "", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      err.Error(),
			"audio_file": s.cfg.FallbackURL,
		})
	}
	return c.JSON(fiber.Map{"response": reply})
}

// handleVoiceText speaks the submitted text verbatim.
func (s *Server) handleVoiceText(c *fiber.Ctx) error {
	var body textBody
	if err := c.BodyParser(&body); err != nil || body.value() == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Text is required",
			"audio_file": s.cfg.FallbackURL,
		})
	}

	res, err := s.pipe.Run(c.UserContext(), pipeline.EchoText, pipeline.Request{Text: body.value()})
	if err != nil {
		return s.pipelineError(c, "", err)
	}
	s.publish("audio", c.Path(), "", res.Audio.ID)
	return c.JSON(fiber.Map{
		"reply":      res.Reply,
		"audio_file": "/play-audio",
		"audio_id":   res.Audio.ID,
	})
}

// handleSessionChat is the full conversational route: STT, per-session
// history, generation, and synthesis.
func (s *Server) handleSessionChat(c *fiber.Ctx) error {
	res, err := s.runUpload(c, pipeline.SessionChat, c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"transcript": res.Transcript,
		"reply":      res.Reply,
		"audio_file": "/play-audio",
		"audio_id":   res.Audio.ID,
	})
}

// handlePlayAudio streams a synthesis artifact: ?id= for a specific
// one, the most recent otherwise.
func (s *Server) handlePlayAudio(c *fiber.Ctx) error {
	if id := c.Query("id"); id != "" {
		r, ok := s.artifacts.Get(id)
		if !ok {
			return s.audioNotFound(c)
		}
		c.Set(fiber.HeaderContentType, "audio/mpeg")
		return c.SendFile(r.Path)
	}

	r, ok := s.artifacts.Latest()
	if !ok {
		return s.audioNotFound(c)
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.SendFile(r.Path)
}

func (s *Server) audioNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Audio file not found",
		"audio_file": s.cfg.FallbackURL,
	})
}

// handleStatus reports process health for the dashboard.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"ws_clients":     s.events.ClientCount(),
		"llm_provider":   s.cfg.LLMProvider,
	})
}

// runUpload pulls the multipart audio out of the request, runs the
// pipeline with the given capability set, and maps failures. The
// returned error, when non-nil, is the already-written response.
func (s *Server) runUpload(c *fiber.Ctx, caps pipeline.Caps, sessionID string) (*pipeline.Result, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "No audio file provided",
			"audio_file": s.cfg.FallbackURL,
		})
	}

	f, err := fh.Open()
	if err != nil {
		return nil, s.pipelineError(c, sessionID, &pipeline.StepError{Step: pipeline.StepSaveUpload, Err: err})
	}
	defer f.Close()

	res, err := s.pipe.Run(c.UserContext(), caps, pipeline.Request{
		Audio:     f,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, s.pipelineError(c, sessionID, err)
	}

	s.publish("transcript", c.Path(), sessionID, res.Transcript)
	if caps.Generate {
		s.publish("reply", c.Path(), sessionID, res.Reply)
	}
	s.publish("audio", c.Path(), sessionID, res.Audio.ID)
	return res, nil
}
