// Package artifact stores generated audio on disk and tracks the most
// recent artifact.
//
// Every synthesis gets its own uuid-named file, so concurrent requests
// cannot overwrite each other's audio. The "latest" pointer preserves
// the historical /play-audio contract of serving whatever was generated
// last; callers that care about their own audio use the per-request ID.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact matches the request.
var ErrNotFound = errors.New("artifact: not found")

// Ref identifies one stored audio artifact.
type Ref struct {
	// ID is the per-request artifact identifier (a uuid).
	ID string `json:"id"`

	// Path is the on-disk location of the audio file.
	Path string `json:"-"`

	// Size is the audio size in bytes.
	Size int64 `json:"size"`

	// CreatedAt is when the artifact was written.
	CreatedAt time.Time `json:"created_at"`
}

// Store writes artifacts to a directory and remembers the latest one.
// Safe for concurrent use.
type Store struct {
	dir string

	mu     sync.RWMutex
	latest *Ref
	byID   map[string]*Ref
}

// NewStore creates the artifact directory if needed and returns a
// store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create dir: %w", err)
	}
	return &Store{
		dir:  dir,
		byID: make(map[string]*Ref),
	}, nil
}

// Save writes the audio bytes to a new uuid-named file and makes it the
// latest artifact.
func (s *Store) Save(audio []byte) (*Ref, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id+".mp3")

	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("artifact: write: %w", err)
	}

	ref := &Ref{
		ID:        id,
		Path:      path,
		Size:      int64(len(audio)),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.byID[id] = ref
	s.latest = ref
	s.mu.Unlock()

	return ref, nil
}

// Latest returns the most recently saved artifact.
func (s *Store) Latest() (*Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Get returns the artifact with the given ID.
func (s *Store) Get(id string) (*Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.byID[id]
	return ref, ok
}

// Open returns a reader for the artifact's audio bytes.
func (s *Store) Open(ref *Ref) (io.ReadCloser, error) {
	f, err := os.Open(ref.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("artifact: open: %w", err)
	}
	return f, nil
}

// Prune removes all artifacts except the newest keep entries. It exists
// so long-running deployments can cap disk growth; pruning the latest
// artifact is never allowed.
func (s *Store) Prune(keep int) int {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byID) <= keep {
		return 0
	}

	refs := make([]*Ref, 0, len(s.byID))
	for _, ref := range s.byID {
		refs = append(refs, ref)
	}
	// newest first
	for i := range refs {
		for j := i + 1; j < len(refs); j++ {
			if refs[j].CreatedAt.After(refs[i].CreatedAt) {
				refs[i], refs[j] = refs[j], refs[i]
			}
		}
	}

	removed := 0
	for _, ref := range refs[keep:] {
		if s.latest != nil && ref.ID == s.latest.ID {
			continue
		}
		delete(s.byID, ref.ID)
		_ = os.Remove(ref.Path) // best effort
		removed++
	}
	return removed
}
