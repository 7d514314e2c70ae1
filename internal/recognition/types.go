package recognition

import (
	"context"
	"time"

	"github.com/sinrajat43/audio-flow/internal/transcript"
)

// Result is one recognized payload
type Result struct {
	// Text is the full recognized text, all partial events joined.
	Text string

	// Language is the language the text was recognized in.
	Language transcript.Language

	// Confidence is the provider's confidence score (0.0 to 1.0), if available
	Confidence float64

	// Duration is the recognized audio duration, if available
	Duration time.Duration
}

// Recognizer converts an audio payload into text
type Recognizer interface {
	// Available reports whether the backend has what it needs to run.
	// The simulated recognizer is always available; the provider-backed one
	// requires credentials.
	Available() bool

	// Recognize transcribes the payload. Blocking; honors ctx cancellation.
	Recognize(ctx context.Context, payload []byte, lang transcript.Language) (*Result, error)
}
