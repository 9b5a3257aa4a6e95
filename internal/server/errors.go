package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-voiceagent/pkg/pipeline"
	"github.com/teslashibe/go-voiceagent/pkg/stt"
)

// pipelineError maps a pipeline failure to a status code and JSON body.
// Every body carries the fallback audio reference so the browser
// client can still play something.
func (s *Server) pipelineError(c *fiber.Ctx, sessionID string, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal error"

	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		switch stepErr.Step {
		case pipeline.StepSaveUpload:
			message = "Audio upload failed"
		case pipeline.StepTranscribe:
			message = "STT failed"
			if errors.Is(err, stt.ErrPollTimeout) {
				status = fiber.StatusGatewayTimeout
			}
		case pipeline.StepGenerate:
			message = "LLM failed"
		case pipeline.StepSynthesize:
			message = "TTS failed"
		case pipeline.StepPersist:
			message = "Audio save failed"
		}
	}

	s.logger.Error("pipeline failed", "route", c.Path(), "session", sessionID, "error", err)
	s.publish("error", c.Path(), sessionID, err.Error())

	body := fiber.Map{
		"error":      message,
		"audio_file": s.cfg.FallbackURL,
	}
	if stepErr != nil {
		body["details"] = stepErr.Err.Error()
	}
	return c.Status(status).JSON(body)
}
