package stt_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-voiceagent/pkg/stt"
)

// fakeProvider is an httptest-backed AssemblyAI lookalike. The poll
// handler walks through statuses, one per request.
type fakeProvider struct {
	statuses []stt.Job
	polls    atomic.Int64
}

func (f *fakeProvider) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/abc"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["audio_url"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(stt.Job{ID: "job-1", Status: stt.StatusQueued})
	})
	mux.HandleFunc("GET /transcript/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		idx := int(n) - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		json.NewEncoder(w).Encode(f.statuses[idx])
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider, opts ...stt.Option) *stt.AssemblyAI {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	base := []stt.Option{
		stt.WithAPIKey("test-key"),
		stt.WithBaseURL(srv.URL),
		stt.WithPollInterval(time.Millisecond),
	}
	client, err := stt.NewAssemblyAI(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestTranscribe(t *testing.T) {
	f := &fakeProvider{statuses: []stt.Job{
		{ID: "job-1", Status: stt.StatusQueued},
		{ID: "job-1", Status: stt.StatusProcessing},
		{ID: "job-1", Status: stt.StatusCompleted, Text: "hello there"},
	}}
	client := newTestClient(t, f)

	text, err := client.Transcribe(context.Background(), strings.NewReader("fake-audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello there" {
		t.Errorf("expected transcript %q, got %q", "hello there", text)
	}
	if got := f.polls.Load(); got != 3 {
		t.Errorf("expected 3 polls, got %d", got)
	}
}

func TestAwaitResultTimeout(t *testing.T) {
	// Job never leaves processing: the budget must be spent exactly.
	f := &fakeProvider{statuses: []stt.Job{
		{ID: "job-1", Status: stt.StatusProcessing},
	}}
	client := newTestClient(t, f, stt.WithMaxPolls(5))

	_, err := client.AwaitResult(context.Background(), "job-1")
	if !errors.Is(err, stt.ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if got := f.polls.Load(); got != 5 {
		t.Errorf("expected exactly 5 poll attempts, got %d", got)
	}
}

func TestAwaitResultProviderError(t *testing.T) {
	f := &fakeProvider{statuses: []stt.Job{
		{ID: "job-1", Status: stt.StatusError, Error: "audio format not supported"},
	}}
	client := newTestClient(t, f)

	_, err := client.AwaitResult(context.Background(), "job-1")
	if !errors.Is(err, stt.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if !strings.Contains(err.Error(), "audio format not supported") {
		t.Errorf("expected provider detail in error, got %q", err.Error())
	}
}

func TestAwaitResultCancellation(t *testing.T) {
	f := &fakeProvider{statuses: []stt.Job{
		{ID: "job-1", Status: stt.StatusProcessing},
	}}
	client := newTestClient(t, f,
		stt.WithMaxPolls(100),
		stt.WithPollInterval(time.Hour), // only cancellation can end the wait
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.AwaitResult(ctx, "job-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if got := f.polls.Load(); got != 1 {
		t.Errorf("expected 1 poll before cancellation, got %d", got)
	}
}

func TestSubmitErrors(t *testing.T) {
	t.Run("rejected upload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"bad audio"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		client, _ := stt.NewAssemblyAI(stt.WithAPIKey("k"), stt.WithBaseURL(srv.URL))
		_, err := client.Submit(context.Background(), strings.NewReader("x"))
		if !errors.Is(err, stt.ErrUpload) {
			t.Fatalf("expected ErrUpload, got %v", err)
		}
		if !strings.Contains(err.Error(), "bad audio") {
			t.Errorf("expected provider detail, got %q", err.Error())
		}
	})

	t.Run("missing upload URL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client, _ := stt.NewAssemblyAI(stt.WithAPIKey("k"), stt.WithBaseURL(srv.URL))
		_, err := client.Submit(context.Background(), strings.NewReader("x"))
		if !errors.Is(err, stt.ErrUpload) {
			t.Fatalf("expected ErrUpload, got %v", err)
		}
	})
}

func TestStartJobErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, _ := stt.NewAssemblyAI(stt.WithAPIKey("k"), stt.WithBaseURL(srv.URL))
		_, err := client.StartJob(context.Background(), "https://cdn.example/upload/abc")
		if !errors.Is(err, stt.ErrJobStart) {
			t.Fatalf("expected ErrJobStart, got %v", err)
		}
	})

	t.Run("missing job ID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"queued"}`))
		}))
		defer srv.Close()

		client, _ := stt.NewAssemblyAI(stt.WithAPIKey("k"), stt.WithBaseURL(srv.URL))
		_, err := client.StartJob(context.Background(), "https://cdn.example/upload/abc")
		if !errors.Is(err, stt.ErrJobStart) {
			t.Fatalf("expected ErrJobStart, got %v", err)
		}
	})
}

func TestConfigValidation(t *testing.T) {
	_, err := stt.NewAssemblyAI()
	if !errors.Is(err, stt.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
