package stt

import (
	"context"
	"io"
	"sync"
)

// Mock implements Client for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SubmitFunc is called when Submit is invoked.
	// If nil, returns a canned upload reference.
	SubmitFunc func(ctx context.Context, audio io.Reader) (string, error)

	// StartJobFunc is called when StartJob is invoked.
	// If nil, returns a canned job ID.
	StartJobFunc func(ctx context.Context, uploadRef string) (string, error)

	// AwaitResultFunc is called when AwaitResult is invoked.
	// If nil, returns Transcript.
	AwaitResultFunc func(ctx context.Context, jobID string) (string, error)

	// Transcript is the text returned by the default AwaitResultFunc.
	Transcript string

	// Tracking
	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock client that transcribes everything to the
// given text.
func NewMock(transcript string) *Mock {
	return &Mock{Transcript: transcript}
}

// Submit calls SubmitFunc and records the call.
func (m *Mock) Submit(ctx context.Context, audio io.Reader) (string, error) {
	m.record("Submit")
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, audio)
	}
	return "mock://upload", nil
}

// StartJob calls StartJobFunc and records the call.
func (m *Mock) StartJob(ctx context.Context, uploadRef string) (string, error) {
	m.record("StartJob")
	if m.StartJobFunc != nil {
		return m.StartJobFunc(ctx, uploadRef)
	}
	return "mock-job", nil
}

// AwaitResult calls AwaitResultFunc and records the call.
func (m *Mock) AwaitResult(ctx context.Context, jobID string) (string, error) {
	m.record("AwaitResult")
	if m.AwaitResultFunc != nil {
		return m.AwaitResultFunc(ctx, jobID)
	}
	return m.Transcript, nil
}

// Transcribe runs the mocked three-call flow.
func (m *Mock) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	uploadRef, err := m.Submit(ctx, audio)
	if err != nil {
		return "", err
	}
	jobID, err := m.StartJob(ctx, uploadRef)
	if err != nil {
		return "", err
	}
	return m.AwaitResult(ctx, jobID)
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SubmitFunc: func(ctx context.Context, audio io.Reader) (string, error) {
			return "", err
		},
		StartJobFunc: func(ctx context.Context, uploadRef string) (string, error) {
			return "", err
		},
		AwaitResultFunc: func(ctx context.Context, jobID string) (string, error) {
			return "", err
		},
	}
}

// record adds a call to the tracking list.
func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

// Calls returns the recorded method names in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c == method {
			count++
		}
	}
	return count
}

// Verify Mock implements Client at compile time.
var _ Client = (*Mock)(nil)
