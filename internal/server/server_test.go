package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-voiceagent/internal/config"
	"github.com/teslashibe/go-voiceagent/pkg/artifact"
	"github.com/teslashibe/go-voiceagent/pkg/llm"
	"github.com/teslashibe/go-voiceagent/pkg/pipeline"
	"github.com/teslashibe/go-voiceagent/pkg/session"
	"github.com/teslashibe/go-voiceagent/pkg/stt"
	"github.com/teslashibe/go-voiceagent/pkg/tts"
)

type testServer struct {
	srv     *Server
	stt     *stt.Mock
	llm     *llm.Mock
	tts     *tts.Mock
	history *session.MemoryStore
}

func newTestServer(t *testing.T, sttMock *stt.Mock, llmMock *llm.Mock, ttsMock *tts.Mock) *testServer {
	t.Helper()

	artifacts, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	history := session.NewMemoryStore()

	pipe := pipeline.New(pipeline.Deps{
		STT:       sttMock,
		LLM:       llmMock,
		TTS:       ttsMock,
		History:   history,
		Artifacts: artifacts,
		TempDir:   t.TempDir(),
	})

	cfg := &config.Config{
		Port:        "0",
		StaticDir:   t.TempDir(),
		FallbackURL: "/static/fallback.mp3",
		LLMProvider: "gemini",
	}

	return &testServer{
		srv:     New(cfg, pipe, llmMock, artifacts, nil),
		stt:     sttMock,
		llm:     llmMock,
		tts:     ttsMock,
		history: history,
	}
}

func (ts *testServer) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test(%s): %v", path, err)
	}
	return resp
}

func (ts *testServer) postAudio(t *testing.T, path string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "clip.webm")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("fake webm bytes"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := ts.srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test(%s): %v", path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Unmarshal %q: %v", data, err)
	}
	return body
}

func TestGenerateRoute(t *testing.T) {
	t.Run("replies", func(t *testing.T) {
		ts := newTestServer(t, nil, llm.NewMock("Paris."), tts.NewMock())

		resp := ts.postJSON(t, "/gemini", `{"prompt":"capital of France?"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["response"] != "Paris." {
			t.Errorf("response = %v", body["response"])
		}
	})

	t.Run("accepts text key", func(t *testing.T) {
		ts := newTestServer(t, nil, llm.NewMock("ok"), tts.NewMock())

		resp := ts.postJSON(t, "/gemini", `{"text":"hi"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("missing prompt", func(t *testing.T) {
		ts := newTestServer(t, nil, llm.NewMock("unused"), tts.NewMock())

		resp := ts.postJSON(t, "/gemini", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["error"] != "Prompt or text field is required" {
			t.Errorf("error = %v", body["error"])
		}
	})

	t.Run("generation failure carries fallback", func(t *testing.T) {
		ts := newTestServer(t, nil, llm.MockError(errors.New("overloaded")), tts.NewMock())

		resp := ts.postJSON(t, "/gemini", `{"prompt":"hi"}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["error"] != "Failed to generate response" {
			t.Errorf("error = %v", body["error"])
		}
		if body["audio_file"] != "/static/fallback.mp3" {
			t.Errorf("audio_file = %v, want fallback", body["audio_file"])
		}
	})
}

func TestVoiceTextRoute(t *testing.T) {
	t.Run("speaks text verbatim", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, tts.NewMock())

		resp := ts.postJSON(t, "/voice/text", `{"text":"read this aloud"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["reply"] != "read this aloud" {
			t.Errorf("reply = %v", body["reply"])
		}
		if body["audio_file"] != "/play-audio" {
			t.Errorf("audio_file = %v", body["audio_file"])
		}
		if id, _ := body["audio_id"].(string); id == "" {
			t.Error("audio_id missing")
		}
	})

	t.Run("missing text", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, tts.NewMock())

		resp := ts.postJSON(t, "/voice/text", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["error"] != "Text is required" {
			t.Errorf("error = %v", body["error"])
		}
	})

	t.Run("synthesis failure", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, tts.WithError(tts.ErrSynthesis))

		resp := ts.postJSON(t, "/voice/text", `{"text":"hi"}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["error"] != "TTS failed" {
			t.Errorf("error = %v", body["error"])
		}
		if body["audio_file"] != "/static/fallback.mp3" {
			t.Errorf("audio_file = %v, want fallback", body["audio_file"])
		}
		if body["details"] == nil {
			t.Error("details missing")
		}
	})
}

func TestEchoVoiceRoute(t *testing.T) {
	ts := newTestServer(t, stt.NewMock("hello there"), nil, tts.NewMock())

	resp := ts.postAudio(t, "/tts/echo/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["transcript"] != "hello there" {
		t.Errorf("transcript = %v", body["transcript"])
	}
	if body["audio_file"] != "/play-audio" {
		t.Errorf("audio_file = %v", body["audio_file"])
	}

	audioID, _ := body["audio_id"].(string)
	if audioID == "" {
		t.Fatal("audio_id missing")
	}

	t.Run("artifact served by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/play-audio?id="+audioID, nil)
		resp, err := ts.srv.App().Test(req)
		if err != nil {
			t.Fatalf("Test: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/mpeg") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("latest served without id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/play-audio", nil)
		resp, err := ts.srv.App().Test(req)
		if err != nil {
			t.Fatalf("Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})
}

func TestEchoVoiceMissingFile(t *testing.T) {
	ts := newTestServer(t, stt.NewMock("unused"), nil, tts.NewMock())

	resp := ts.postJSON(t, "/tts/echo/", `{}`)
	// A JSON body has no multipart file.
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["error"] != "No audio file provided" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestQueryRouteDualMode(t *testing.T) {
	t.Run("json body generates text only", func(t *testing.T) {
		ts := newTestServer(t, stt.NewMock("unused"), llm.NewMock("42"), tts.NewMock())

		resp := ts.postJSON(t, "/llm/query", `{"text":"meaning of life?"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["response"] != "42" {
			t.Errorf("response = %v", body["response"])
		}
		if ts.tts.CallCount("Synthesize") != 0 {
			t.Error("text mode must not synthesize")
		}
	})

	t.Run("multipart runs the voice pipeline", func(t *testing.T) {
		ts := newTestServer(t, stt.NewMock("meaning of life?"), llm.NewMock("42"), tts.NewMock())

		resp := ts.postAudio(t, "/llm/query")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["transcript"] != "meaning of life?" {
			t.Errorf("transcript = %v", body["transcript"])
		}
		if body["llm_response"] != "42" {
			t.Errorf("llm_response = %v", body["llm_response"])
		}
		if body["audio_file"] != "/play-audio" {
			t.Errorf("audio_file = %v", body["audio_file"])
		}
	})

	t.Run("empty json body", func(t *testing.T) {
		ts := newTestServer(t, nil, llm.NewMock("unused"), tts.NewMock())

		resp := ts.postJSON(t, "/llm/query", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		body := decode(t, resp)
		if body["error"] != "Text or prompt field is required" {
			t.Errorf("error = %v", body["error"])
		}
	})
}

func TestSessionChatRoute(t *testing.T) {
	ts := newTestServer(t, stt.NewMock("my name is Ada"), llm.NewMock("Hi Ada!"), tts.NewMock())

	resp := ts.postAudio(t, "/gemini/voice/sess-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["transcript"] != "my name is Ada" {
		t.Errorf("transcript = %v", body["transcript"])
	}
	if body["reply"] != "Hi Ada!" {
		t.Errorf("reply = %v", body["reply"])
	}

	turns := ts.history.Turns("sess-1")
	if len(turns) != 2 {
		t.Fatalf("got %d history turns, want 2", len(turns))
	}
}

func TestPollTimeoutMapsToGatewayTimeout(t *testing.T) {
	ts := newTestServer(t, stt.WithError(stt.ErrPollTimeout), nil, tts.NewMock())

	resp := ts.postAudio(t, "/tts/echo/")
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["error"] != "STT failed" {
		t.Errorf("error = %v", body["error"])
	}
	if body["audio_file"] != "/static/fallback.mp3" {
		t.Errorf("audio_file = %v, want fallback", body["audio_file"])
	}
}

func TestPlayAudioNotFound(t *testing.T) {
	ts := newTestServer(t, nil, nil, tts.NewMock())

	req := httptest.NewRequest(http.MethodGet, "/play-audio", nil)
	resp, err := ts.srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["error"] != "Audio file not found" {
		t.Errorf("error = %v", body["error"])
	}
	if body["audio_file"] != "/static/fallback.mp3" {
		t.Errorf("audio_file = %v, want fallback", body["audio_file"])
	}
}

func TestStatusRoute(t *testing.T) {
	ts := newTestServer(t, nil, nil, tts.NewMock())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	resp, err := ts.srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if body["llm_provider"] != "gemini" {
		t.Errorf("llm_provider = %v", body["llm_provider"])
	}
}

func TestProbeRoute(t *testing.T) {
	ts := newTestServer(t, nil, nil, tts.NewMock())

	req := httptest.NewRequest(http.MethodGet, "/gemini", nil)
	resp, err := ts.srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "POST") {
		t.Errorf("message = %v", body["message"])
	}
}
