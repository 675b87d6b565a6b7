package pipeline

import "errors"

// ErrPlaybackNotAllowed is returned by a Player when no user action has
// authorized audio yet. The pipeline keeps the audio as pending instead of
// reporting an error.
var ErrPlaybackNotAllowed = errors.New("playback not allowed")

// TranslationError wraps a failed translation call.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string { return "translation failed: " + e.Err.Error() }
func (e *TranslationError) Unwrap() error { return e.Err }

// SpeechError wraps a failed synthesis call.
type SpeechError struct {
	Err error
}

func (e *SpeechError) Error() string { return "speech synthesis failed: " + e.Err.Error() }
func (e *SpeechError) Unwrap() error { return e.Err }

// PlaybackError wraps a playback failure other than a missing permission.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string { return "playback failed: " + e.Err.Error() }
func (e *PlaybackError) Unwrap() error { return e.Err }
