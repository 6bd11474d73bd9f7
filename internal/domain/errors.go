package domain

import "errors"

var (
	// ErrInvalidInput marks caller mistakes: missing upload, empty message.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEngineUnavailable is returned while an engine is loading or after it failed to load.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrTranscriptionFailed means the engine could not produce a transcript.
	// An empty transcript is not a failure.
	ErrTranscriptionFailed = errors.New("transcription failed")

	ErrScratchIO = errors.New("scratch file i/o")

	// ErrUpstream covers network, auth and protocol failures of a text-generation
	// or speech backend.
	ErrUpstream = errors.New("upstream dependency failed")

	// ErrNoAudio is returned when a recording holds zero samples.
	ErrNoAudio = errors.New("no audio captured")
)
