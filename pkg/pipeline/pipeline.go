// Package pipeline sequences the voice-assistant request flow:
// transcribe uploaded audio, optionally generate a conversational
// reply, synthesize speech, and persist the audio artifact.
//
// One parameterized Run replaces the per-endpoint pipelines: each HTTP
// route is just a capability set over the same linear state machine
//
//	received → save upload → transcribe → history → generate →
//	synthesize → persist → responded
//
// with every optional stage gated by Caps. Any step's failure
// short-circuits the rest, cleans up the temp upload, and surfaces as a
// StepError so the transport layer can map it to a status code.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/teslashibe/go-voiceagent/pkg/artifact"
	"github.com/teslashibe/go-voiceagent/pkg/llm"
	"github.com/teslashibe/go-voiceagent/pkg/session"
	"github.com/teslashibe/go-voiceagent/pkg/stt"
	"github.com/teslashibe/go-voiceagent/pkg/tts"
)

// failureReply is recorded as the assistant turn when generation fails,
// so the session history reflects the failed exchange.
const failureReply = "I'm having trouble generating a response right now."

// Caps selects which optional stages a pipeline run performs.
// Synthesis always runs; text-only generation (no audio out) goes
// straight to the Generator and does not use Run.
type Caps struct {
	// Transcribe reads Request.Audio and produces the transcript.
	Transcribe bool

	// Generate produces a reply from the transcript (or rendered
	// history) instead of echoing the input.
	Generate bool

	// History threads the exchange through the session store and
	// prompts the model with the full rendered conversation.
	History bool
}

// The named pipeline shapes.
var (
	// EchoVoice transcribes audio and speaks the transcript back.
	EchoVoice = Caps{Transcribe: true}

	// EchoText speaks the submitted text verbatim.
	EchoText = Caps{}

	// VoiceQA answers a spoken question statelessly.
	VoiceQA = Caps{Transcribe: true, Generate: true}

	// SessionChat answers a spoken question with full per-session
	// conversation history.
	SessionChat = Caps{Transcribe: true, Generate: true, History: true}
)

// Step identifies the pipeline stage an error occurred in.
type Step string

// Pipeline stages, in execution order.
const (
	StepSaveUpload Step = "save_upload"
	StepTranscribe Step = "transcribe"
	StepGenerate   Step = "generate"
	StepSynthesize Step = "synthesize"
	StepPersist    Step = "persist"
)

// StepError wraps a stage failure with the stage it occurred in.
type StepError struct {
	Step Step
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Request is one voice or text exchange entering the pipeline.
type Request struct {
	// Audio is the uploaded audio body. Required when Caps.Transcribe.
	Audio io.Reader

	// Text is the input text for non-transcribing runs.
	Text string

	// SessionID scopes conversation history. Required when Caps.History.
	SessionID string
}

// Result is a completed pipeline run.
type Result struct {
	// Transcript is the STT output (empty for text input).
	Transcript string

	// Reply is the generated answer, or the echoed input for
	// non-generating runs.
	Reply string

	// Audio references the persisted synthesis artifact.
	Audio *artifact.Ref
}

// Deps are the collaborators a Pipeline orchestrates.
type Deps struct {
	STT       stt.Client
	LLM       llm.Generator
	TTS       tts.Provider
	History   session.Store
	Artifacts *artifact.Store

	// TempDir holds uploaded audio while it is transcribed.
	// Defaults to os.TempDir().
	TempDir string

	Logger *slog.Logger
}

// Pipeline runs the request flow over a fixed set of collaborators.
type Pipeline struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Pipeline. Only the collaborators required by the caps
// a caller intends to use must be non-nil.
func New(deps Deps) *Pipeline {
	if deps.TempDir == "" {
		deps.TempDir = os.TempDir()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		deps:   deps,
		logger: logger.With("component", "pipeline"),
	}
}

// Run executes the pipeline for one request.
func (p *Pipeline) Run(ctx context.Context, caps Caps, req Request) (*Result, error) {
	var transcript string

	if caps.Transcribe {
		tempPath, err := p.saveUpload(req.Audio)
		if err != nil {
			return nil, &StepError{Step: StepSaveUpload, Err: err}
		}
		// Best-effort cleanup on every exit path.
		defer os.Remove(tempPath)

		transcript, err = p.transcribe(ctx, tempPath)
		if err != nil {
			return nil, &StepError{Step: StepTranscribe, Err: err}
		}
		p.logger.Info("transcribed", "chars", len(transcript), "session", req.SessionID)
	}

	input := transcript
	if !caps.Transcribe {
		input = req.Text
	}

	reply := input
	if caps.Generate {
		prompt := input
		if caps.History {
			p.deps.History.Append(req.SessionID, session.RoleUser, transcript)
			prompt = p.deps.History.Render(req.SessionID)
		}

		generated, err := p.deps.LLM.Generate(ctx, prompt)
		if err != nil {
			if caps.History {
				p.deps.History.Append(req.SessionID, session.RoleAssistant, failureReply)
			}
			return nil, &StepError{Step: StepGenerate, Err: err}
		}
		reply = strings.TrimSpace(generated)

		if caps.History {
			p.deps.History.Append(req.SessionID, session.RoleAssistant, reply)
		}
		p.logger.Info("reply generated", "chars", len(reply), "session", req.SessionID)
	}

	audio, err := p.deps.TTS.Synthesize(ctx, reply)
	if err != nil {
		return nil, &StepError{Step: StepSynthesize, Err: err}
	}

	ref, err := p.deps.Artifacts.Save(audio.Audio)
	if err != nil {
		return nil, &StepError{Step: StepPersist, Err: err}
	}

	p.logger.Info("pipeline complete",
		"transcribed", caps.Transcribe,
		"generated", caps.Generate,
		"history", caps.History,
		"artifact", ref.ID,
		"audio_bytes", ref.Size,
	)

	return &Result{
		Transcript: transcript,
		Reply:      reply,
		Audio:      ref,
	}, nil
}

// saveUpload buffers the uploaded audio to a uuid-named temp file.
// (Per-request names: concurrent uploads cannot collide.)
func (p *Pipeline) saveUpload(audio io.Reader) (string, error) {
	if audio == nil {
		return "", fmt.Errorf("no audio provided")
	}

	path := filepath.Join(p.deps.TempDir, "upload_"+uuid.NewString()+".webm")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("buffer upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

// transcribe runs the three-call STT flow over the buffered upload.
func (p *Pipeline) transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	return p.deps.STT.Transcribe(ctx, f)
}
