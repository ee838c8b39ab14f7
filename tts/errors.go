package tts

import "errors"

// Common errors for the synthesis pipeline.
var (
	// Engine errors. Synthesis errors are recoverable at the cue level:
	// the conversion skips the cue and continues.
	ErrEngineNotAvailable   = errors.New("TTS engine is not available")
	ErrEngineNotInitialized = errors.New("TTS engine is not initialized")
	ErrSynthesisFailed      = errors.New("audio synthesis failed")
	ErrNoAudioProduced      = errors.New("engine produced no audio")
	ErrEngineShutdown       = errors.New("engine has been shut down")

	// Reconciliation errors, also recoverable per cue.
	ErrStretchFailed = errors.New("tempo adjustment failed")
	ErrEmptyAudio    = errors.New("empty audio input")

	// File-level errors, fatal for one conversion but not the run.
	ErrNoCues         = errors.New("no cues survived parsing")
	ErrNoSegments     = errors.New("no audio segments were produced")
	ErrEncodingFailed = errors.New("output encoding failed")

	// Configuration errors, fatal for the run.
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// IsCueRecoverable reports whether an error should be absorbed at the cue
// level, letting the conversion continue with the next cue.
func IsCueRecoverable(err error) bool {
	return errors.Is(err, ErrSynthesisFailed) ||
		errors.Is(err, ErrNoAudioProduced) ||
		errors.Is(err, ErrStretchFailed) ||
		errors.Is(err, ErrEmptyAudio)
}
