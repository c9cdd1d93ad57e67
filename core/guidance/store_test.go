package guidance

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	index := 2
	saved := State{ContentID: "a/b", TotalTime: 3 * time.Minute, WaypointIndex: &index, Visited: []int{0, 1}}

	if err := store.Save("tour", saved); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	loaded, ok := store.Load("tour", "a/b")
	if !ok {
		t.Fatalf("expected state to load")
	}
	if loaded.TotalTime != saved.TotalTime || *loaded.WaypointIndex != 2 || !slices.Equal(loaded.Visited, saved.Visited) {
		t.Fatalf("expected %+v, got %+v", saved, loaded)
	}

	if _, ok := store.Load("route", "a/b"); ok {
		t.Fatalf("expected flavors to be stored separately")
	}
}

func TestFileStoreIgnoresMissingAndCorruptState(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if _, ok := store.Load("tour", "missing"); ok {
		t.Fatalf("expected missing state not to load")
	}

	if err := os.MkdirAll(filepath.Join(dir, "tour"), 0o755); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tour", "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Load("tour", "broken"); ok {
		t.Fatalf("expected corrupt state not to load")
	}

	if err := os.WriteFile(filepath.Join(dir, "tour", "other.json"), []byte(`{"contentId":"something-else"}`), 0o644); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Load("tour", "other"); ok {
		t.Fatalf("expected state for other content not to load")
	}
}

func TestStateValidation(t *testing.T) {
	out := 5
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"empty", State{}, true},
		{"index out of range", State{WaypointIndex: &out}, false},
		{"duplicate visit", State{Visited: []int{0, 0}}, false},
		{"visit out of range", State{Visited: []int{3}}, false},
		{"visited", State{Visited: []int{1, 0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.valid(3); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
