// Package tts defines the speech synthesis abstraction the conversion
// pipeline is built against. Engines live in tts/engines.
package tts

import (
	"context"
	"time"
)

// Engine is a text-to-speech engine.
type Engine interface {
	// Initialize prepares the engine for use with the given configuration.
	Initialize(config EngineConfig) error

	// Synthesize renders text to audio. The returned duration is measured
	// from the produced audio, never estimated from the text.
	Synthesize(ctx context.Context, text string) (*Audio, error)

	// IsAvailable reports whether the engine can synthesize right now.
	IsAvailable() bool

	// Shutdown releases engine resources.
	Shutdown() error
}

// EngineConfig holds configuration shared by all engines.
type EngineConfig struct {
	Voice      string        `yaml:"voice" env:"SUBVOX_VOICE" envDefault:"en_US-lessac-medium"`
	SampleRate int           `yaml:"sample_rate" env:"SUBVOX_SAMPLE_RATE" envDefault:"22050"`
	Timeout    time.Duration `yaml:"timeout" env:"SUBVOX_SYNTH_TIMEOUT" envDefault:"30s"`
}

// Audio is rendered speech as mono PCM16 little-endian samples.
type Audio struct {
	Data       []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Voice identifies a TTS voice model.
type Voice struct {
	ID       string
	Name     string
	Language string
}
