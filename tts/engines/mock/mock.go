// Package mock provides a scripted TTS engine for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxlab/subvox/tts"
)

// Engine implements tts.Engine without touching any external process. Tests
// script it with per-text durations and failure markers. Synthesize may be
// called from concurrent workers; script the maps before handing the engine
// to them, and read Calls only after they are done.
type Engine struct {
	mu          sync.Mutex
	config      tts.EngineConfig
	initialized bool

	// Durations maps text to the rendered duration to fake. Texts not in
	// the map use the word-rate estimate.
	Durations map[string]time.Duration

	// FailOn marks texts whose synthesis should fail.
	FailOn map[string]bool

	// WordsPerMinute drives the fallback duration estimate.
	WordsPerMinute int

	// Calls records every synthesized text in order.
	Calls []string
}

// New creates a mock engine with a 150 wpm fallback rate.
func New() *Engine {
	return &Engine{
		Durations:      make(map[string]time.Duration),
		FailOn:         make(map[string]bool),
		WordsPerMinute: 150,
	}
}

// Initialize stores the configuration.
func (e *Engine) Initialize(config tts.EngineConfig) error {
	if config.SampleRate <= 0 {
		config.SampleRate = 22050
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
	e.initialized = true
	return nil
}

// Synthesize fakes rendering: the output is silence of the scripted
// duration, so downstream PCM math behaves as it would with real speech.
func (e *Engine) Synthesize(_ context.Context, text string) (*tts.Audio, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, tts.ErrEngineNotInitialized
	}
	e.Calls = append(e.Calls, text)
	sampleRate := e.config.SampleRate
	e.mu.Unlock()

	if e.FailOn[text] {
		return nil, fmt.Errorf("mock refusing %q: %w", text, tts.ErrSynthesisFailed)
	}

	duration, ok := e.Durations[text]
	if !ok {
		duration = e.estimate(text)
	}

	samples := int(duration.Seconds() * float64(sampleRate))
	return &tts.Audio{
		Data:       make([]byte, samples*2),
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   duration,
	}, nil
}

// IsAvailable reports whether Initialize has been called.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Shutdown resets the engine.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}

func (e *Engine) estimate(text string) time.Duration {
	words := 1
	for _, r := range text {
		if r == ' ' {
			words++
		}
	}
	wpm := e.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	return time.Duration(float64(words) / float64(wpm) * float64(time.Minute))
}
