package tts_test

import (
	"context"
	"strings"
	"testing"

	"github.com/teslashibe/go-voiceagent/pkg/tts"
)

func TestTruncate(t *testing.T) {
	t.Run("short input unchanged", func(t *testing.T) {
		text, truncated := tts.Truncate("hello")
		if truncated || text != "hello" {
			t.Errorf("got %q truncated=%v", text, truncated)
		}
	})

	t.Run("cap is exact", func(t *testing.T) {
		text, truncated := tts.Truncate(strings.Repeat("x", tts.MaxTextLen))
		if truncated || len(text) != tts.MaxTextLen {
			t.Errorf("exact-cap input should pass through, truncated=%v", truncated)
		}
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		// 3001 multibyte runes must come back as exactly 3000 runes.
		text, truncated := tts.Truncate(strings.Repeat("ß", tts.MaxTextLen+1))
		if !truncated {
			t.Fatal("expected truncation")
		}
		if got := len([]rune(text)); got != tts.MaxTextLen {
			t.Errorf("expected %d runes, got %d", tts.MaxTextLen, got)
		}
	})
}

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
		if last := mock.LastCall(); last == nil || last.Text != "Hello world" {
			t.Errorf("unexpected last call %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}
