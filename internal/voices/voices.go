// Package voices resolves piper voice models by id, caching downloaded
// model files in the user cache directory.
package voices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"

	"github.com/voxlab/subvox/tts"
)

// DefaultBaseURL is the rhasspy voice collection piper models ship from.
const DefaultBaseURL = "https://huggingface.co/rhasspy/piper-voices/resolve/main"

// Manager locates and fetches voice models. Models are stored flat in the
// cache directory as <id>.onnx plus the <id>.onnx.json sidecar piper needs.
type Manager struct {
	cacheDir string
	baseURL  string
	client   *http.Client
}

// NewManager creates a manager over cacheDir. An empty baseURL uses the
// default voice collection.
func NewManager(cacheDir, baseURL string) *Manager {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Manager{
		cacheDir: cacheDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   http.DefaultClient,
	}
}

// DefaultCacheDir returns the per-user voice cache directory.
func DefaultCacheDir() (string, error) {
	scope := gap.NewScope(gap.User, "subvox")
	dir, err := scope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}
	return filepath.Join(dir, "voices"), nil
}

// ModelPath returns where the model file for id lives (cached or not).
func (m *Manager) ModelPath(id string) string {
	return filepath.Join(m.cacheDir, id+".onnx")
}

// ConfigPath returns where the model's JSON sidecar lives.
func (m *Manager) ConfigPath(id string) string {
	return m.ModelPath(id) + ".json"
}

// IsCached reports whether the model file for id is present.
func (m *Manager) IsCached(id string) bool {
	info, err := os.Stat(m.ModelPath(id))
	return err == nil && info.Size() > 0
}

// List returns the ids of all cached voices, sorted.
func (m *Manager) List() ([]tts.Voice, error) {
	entries, err := os.ReadDir(m.cacheDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read voice cache: %w", err)
	}

	var voices []tts.Voice
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".onnx") {
			continue
		}
		id := strings.TrimSuffix(name, ".onnx")
		voices = append(voices, tts.Voice{
			ID:       id,
			Name:     id,
			Language: voiceLanguage(id),
		})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })
	return voices, nil
}

// Fetch downloads the model and its sidecar for id into the cache. Already
// cached models are left alone.
func (m *Manager) Fetch(ctx context.Context, id string) error {
	if m.IsCached(id) {
		log.Debug("voice already cached", "voice", id, "path", m.ModelPath(id))
		return nil
	}
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create voice cache: %w", err)
	}

	base, err := VoiceURL(m.baseURL, id)
	if err != nil {
		return err
	}

	log.Info("downloading voice model", "voice", id)
	if err := m.download(ctx, base+".onnx", m.ModelPath(id)); err != nil {
		return fmt.Errorf("fetch voice %s: %w", id, err)
	}
	if err := m.download(ctx, base+".onnx.json", m.ConfigPath(id)); err != nil {
		_ = os.Remove(m.ModelPath(id))
		return fmt.Errorf("fetch voice config %s: %w", id, err)
	}
	return nil
}

// download fetches url into path via a temp file so a partial download
// never looks like a cached model.
func (m *Manager) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to get url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP status %d for %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(m.cacheDir, filepath.Base(path)+".download-*")
	if err != nil {
		return err
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	log.Debug("downloaded", "url", url, "size", humanize.Bytes(uint64(n)))
	return nil
}

// VoiceURL maps a piper voice id like "en_US-lessac-medium" onto its
// location in the voice collection:
// <base>/en/en_US/lessac/medium/en_US-lessac-medium.
func VoiceURL(baseURL, id string) (string, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: voice id %q (want locale-name-quality)", tts.ErrInvalidConfig, id)
	}
	locale, name, quality := parts[0], parts[1], parts[2]
	lang := locale
	if i := strings.IndexByte(locale, '_'); i >= 0 {
		lang = locale[:i]
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", baseURL, lang, locale, name, quality, id), nil
}

func voiceLanguage(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return strings.ReplaceAll(id[:i], "_", "-")
	}
	return ""
}
