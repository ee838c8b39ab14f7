package voices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestVoiceURL(t *testing.T) {
	url, err := VoiceURL("https://example.com/main", "en_US-lessac-medium")
	if err != nil {
		t.Fatal(err)
	}
	want := "https://example.com/main/en/en_US/lessac/medium/en_US-lessac-medium"
	if url != want {
		t.Errorf("VoiceURL = %q, want %q", url, want)
	}
}

func TestVoiceURLRejectsMalformedID(t *testing.T) {
	for _, id := range []string{"", "lessac", "en_US-lessac", "a-b-c-d"} {
		if _, err := VoiceURL("https://example.com", id); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}

func TestModelPathsAndCaching(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "")

	id := "en_US-lessac-medium"
	if m.ModelPath(id) != filepath.Join(dir, id+".onnx") {
		t.Errorf("ModelPath = %q", m.ModelPath(id))
	}
	if m.ConfigPath(id) != filepath.Join(dir, id+".onnx.json") {
		t.Errorf("ConfigPath = %q", m.ConfigPath(id))
	}

	if m.IsCached(id) {
		t.Error("empty cache should not report cached")
	}
	if err := os.WriteFile(m.ModelPath(id), []byte("model bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !m.IsCached(id) {
		t.Error("model file present but not reported cached")
	}
}

func TestIsCachedIgnoresEmptyFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "")
	id := "en_US-lessac-medium"
	if err := os.WriteFile(m.ModelPath(id), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if m.IsCached(id) {
		t.Error("zero-byte model reported cached")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "")

	for _, id := range []string{"en_US-lessac-medium", "de_DE-thorsten-high"} {
		if err := os.WriteFile(m.ModelPath(id), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Sidecars and strays must not show up as voices.
	_ = os.WriteFile(filepath.Join(dir, "en_US-lessac-medium.onnx.json"), []byte("{}"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644)

	got, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 voices, got %d: %v", len(got), got)
	}
	if got[0].ID != "de_DE-thorsten-high" || got[1].ID != "en_US-lessac-medium" {
		t.Errorf("voices not sorted: %v", got)
	}
	if got[1].Language != "en-US" {
		t.Errorf("language = %q, want en-US", got[1].Language)
	}
}

func TestListMissingCacheDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), "")
	got, err := m.List()
	if err != nil || got != nil {
		t.Errorf("missing cache dir should list nothing, got %v, %v", got, err)
	}
}

func TestFetchDownloadsModelAndSidecar(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		fmt.Fprint(w, "payload for "+r.URL.Path)
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := NewManager(dir, srv.URL)
	id := "en_US-lessac-medium"

	if err := m.Fetch(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if !m.IsCached(id) {
		t.Error("model not cached after Fetch")
	}
	if _, err := os.Stat(m.ConfigPath(id)); err != nil {
		t.Errorf("sidecar missing: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 downloads, got %v", hits)
	}

	// Second fetch is a no-op.
	if err := m.Fetch(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("cached fetch re-downloaded: %v", hits)
	}
}

func TestFetchFailureLeavesNoArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := NewManager(dir, srv.URL)
	id := "en_US-lessac-medium"

	if err := m.Fetch(context.Background(), id); err == nil {
		t.Fatal("expected fetch error")
	}
	if m.IsCached(id) {
		t.Error("failed fetch left a cached model behind")
	}
}
