package artifact_test

import (
	"io"
	"testing"
	"time"

	"github.com/teslashibe/go-voiceagent/pkg/artifact"
)

func TestSaveAndLatest(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, ok := store.Latest(); ok {
		t.Error("empty store should have no latest artifact")
	}

	first, err := store.Save([]byte("first-audio"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save([]byte("second-audio"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if first.ID == second.ID {
		t.Error("artifacts must get distinct IDs")
	}

	latest, ok := store.Latest()
	if !ok || latest.ID != second.ID {
		t.Errorf("latest should be the second save, got %+v", latest)
	}

	// The earlier artifact stays reachable by ID.
	ref, ok := store.Get(first.ID)
	if !ok {
		t.Fatal("first artifact lost")
	}
	r, err := store.Open(ref)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "first-audio" {
		t.Errorf("expected first-audio, got %q", data)
	}
}

func TestGetUnknownID(t *testing.T) {
	store, _ := artifact.NewStore(t.TempDir())
	if _, ok := store.Get("nope"); ok {
		t.Error("unknown ID should miss")
	}
}

func TestPrune(t *testing.T) {
	store, _ := artifact.NewStore(t.TempDir())

	var refs []*artifact.Ref
	for range 5 {
		ref, err := store.Save([]byte("x"))
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		refs = append(refs, ref)
		time.Sleep(time.Millisecond) // distinct CreatedAt
	}

	removed := store.Prune(2)
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	// Latest survives pruning.
	latest, ok := store.Latest()
	if !ok || latest.ID != refs[4].ID {
		t.Error("latest artifact must survive pruning")
	}
	if _, ok := store.Get(refs[0].ID); ok {
		t.Error("oldest artifact should be gone")
	}
}
