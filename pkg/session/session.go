// Package session keeps per-session conversation history for the voice
// chat pipeline.
//
// History lives for the lifetime of the process only: it grows
// monotonically, is never pruned, and is lost on restart. The Store
// interface exists so a bounded or persistent backend can be swapped in
// without touching pipeline logic.
package session

import (
	"strings"
	"sync"
)

// Turn roles. Alternation of user/assistant turns is conventional, not
// enforced.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// systemInstruction prefixes every rendered history prompt.
const systemInstruction = "You are a helpful assistant. Continue the conversation based on the history below."

// Turn is one message of a conversation. Immutable once appended.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is the conversation history backend.
type Store interface {
	// Append adds a turn to the session, creating the session on first
	// use.
	Append(sessionID, role, content string)

	// Turns returns a copy of the session's turns in append order.
	Turns(sessionID string) []Turn

	// Render serializes the full history into a single prompt block.
	Render(sessionID string) string

	// Evict drops a session's history entirely.
	Evict(sessionID string)
}

// MemoryStore is the in-process Store. Safe for concurrent use; turns
// for a session always appear in strict append order.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Turn),
	}
}

// Append adds a turn to the session. Role values are not validated.
func (s *MemoryStore) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], Turn{Role: role, Content: content})
}

// Turns returns a copy of the session's turns in append order.
func (s *MemoryStore) Turns(sessionID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Render serializes the history as a prompt: the fixed system
// instruction, then one "<Role>: <content>" line per turn, closed by an
// "Assistant:" cue for the model to continue from.
func (s *MemoryStore) Render(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")
	for _, turn := range s.sessions[sessionID] {
		b.WriteString(capitalize(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// Evict drops a session's history entirely.
func (s *MemoryStore) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of turns recorded for a session.
func (s *MemoryStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// capitalize uppercases the first byte of an ASCII role name.
func capitalize(role string) string {
	if role == "" {
		return role
	}
	if role[0] >= 'a' && role[0] <= 'z' {
		return string(role[0]-'a'+'A') + role[1:]
	}
	return role
}

// Verify MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)
