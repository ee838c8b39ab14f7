// Package piper drives the Piper TTS engine as an external process.
//
// Piper is run fresh per request: text goes in on stdin, raw PCM16 comes
// back on stdout. A long-lived piper process buffers unpredictably between
// sentences, which makes per-cue duration measurement unreliable; a fresh
// process ends its output with EOF, so the rendered length is exact.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/voxlab/subvox/tts"
)

// Config holds piper-specific settings.
type Config struct {
	BinaryPath string `yaml:"binary" env:"SUBVOX_PIPER_BINARY" envDefault:"piper"`
	ModelPath  string `yaml:"model_path" env:"SUBVOX_PIPER_MODEL_PATH"`
	ConfigPath string `yaml:"config_path" env:"SUBVOX_PIPER_CONFIG_PATH"`
}

// Engine implements tts.Engine using the piper binary.
type Engine struct {
	config       Config
	engineConfig tts.EngineConfig

	initialized atomic.Bool
	shutdown    atomic.Bool

	stats struct {
		requests int64
		failures int64
	}
}

// New creates a piper engine. The model path must point at a voice model on
// disk; resolution and download live in internal/voices.
func New(config Config) (*Engine, error) {
	if config.BinaryPath == "" {
		config.BinaryPath = "piper"
	}
	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}
	if config.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("piper model not accessible: %w", err)
	}
	return &Engine{config: config}, nil
}

// Initialize stores the engine configuration.
func (e *Engine) Initialize(config tts.EngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	e.engineConfig = config
	e.initialized.Store(true)
	return nil
}

// Synthesize renders text through a fresh piper process and measures the
// rendered duration from the PCM byte count.
func (e *Engine) Synthesize(ctx context.Context, text string) (*tts.Audio, error) {
	if e.shutdown.Load() {
		return nil, tts.ErrEngineShutdown
	}
	if !e.initialized.Load() {
		return nil, tts.ErrEngineNotInitialized
	}
	atomic.AddInt64(&e.stats.requests, 1)

	ctx, cancel := context.WithTimeout(ctx, e.engineConfig.Timeout)
	defer cancel()

	args := []string{"--model", e.config.ModelPath, "--output-raw"}
	if e.config.ConfigPath != "" {
		if _, err := os.Stat(e.config.ConfigPath); err == nil {
			args = append(args, "--config", e.config.ConfigPath)
		}
	}

	cmd := exec.CommandContext(ctx, e.config.BinaryPath, args...)
	// Stdin must be wired before Start; piper reads it immediately, and the
	// trailing EOF is what tells it to flush and exit.
	cmd.Stdin = strings.NewReader(text + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		atomic.AddInt64(&e.stats.failures, 1)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			log.Debug("piper stderr", "output", msg)
		}
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}

	data := stdout.Bytes()
	if len(data) == 0 {
		atomic.AddInt64(&e.stats.failures, 1)
		return nil, fmt.Errorf("%w: %q", tts.ErrNoAudioProduced, truncate(text, 40))
	}
	if len(data)%2 != 0 {
		// Drop a trailing odd byte rather than failing the cue.
		data = data[:len(data)-1]
	}

	sampleRate := e.engineConfig.SampleRate
	samples := len(data) / 2
	duration := time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))

	return &tts.Audio{
		Data:       data,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   duration,
	}, nil
}

// IsAvailable reports whether the engine accepts requests.
func (e *Engine) IsAvailable() bool {
	return e.initialized.Load() && !e.shutdown.Load()
}

// Shutdown stops accepting requests and logs usage counters.
func (e *Engine) Shutdown() error {
	if e.shutdown.CompareAndSwap(false, true) {
		log.Debug("piper engine shut down",
			"requests", atomic.LoadInt64(&e.stats.requests),
			"failures", atomic.LoadInt64(&e.stats.failures))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
