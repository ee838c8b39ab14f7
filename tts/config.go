package tts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// LoadEngineConfig builds an EngineConfig from defaults and SUBVOX_*
// environment variables. Flag and config-file values are layered on top by
// the caller.
func LoadEngineConfig() (EngineConfig, error) {
	cfg, err := env.ParseAs[EngineConfig]()
	if err != nil {
		return EngineConfig{}, fmt.Errorf("parse engine config: %w", err)
	}
	return cfg, nil
}

// Validate checks an EngineConfig for values no engine could work with.
func (c EngineConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Voice == "" {
		return fmt.Errorf("%w: voice must not be empty", ErrInvalidConfig)
	}
	return nil
}
