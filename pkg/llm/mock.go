package llm

import (
	"context"
	"sync"
)

// Mock implements Generator for testing.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns Reply.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// Reply is the text returned by the default GenerateFunc.
	Reply string

	mu      sync.Mutex
	prompts []string
}

// NewMock creates a mock generator that always replies with the given
// text.
func NewMock(reply string) *Mock {
	return &Mock{Reply: reply}
}

// MockError returns a mock whose Generate always fails with err.
func MockError(err error) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", err
		},
	}
}

// Generate records the prompt and returns the canned reply or the
// custom function's result.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return m.Reply, nil
}

// Prompts returns every prompt passed to Generate, in order.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Verify Mock implements Generator at compile time.
var _ Generator = (*Mock)(nil)
