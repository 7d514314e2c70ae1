package recognition

import (
	"context"
	"time"

	"github.com/sinrajat43/audio-flow/internal/transcript"
)

// cannedSentences holds one fixed sentence per supported language tag.
var cannedSentences = map[transcript.Language]string{
	transcript.LangEnglish:    "This is a simulated transcription of the submitted audio recording.",
	transcript.LangSpanish:    "Esta es una transcripción simulada de la grabación de audio enviada.",
	transcript.LangFrench:     "Ceci est une transcription simulée de l'enregistrement audio soumis.",
	transcript.LangGerman:     "Dies ist eine simulierte Transkription der eingereichten Audioaufnahme.",
	transcript.LangItalian:    "Questa è una trascrizione simulata della registrazione audio inviata.",
	transcript.LangPortuguese: "Esta é uma transcrição simulada da gravação de áudio enviada.",
	transcript.LangJapanese:   "これは送信された音声録音のシミュレートされた文字起こしです。",
}

const simulatedConfidence = 0.93

// Simulated is a Recognizer that returns canned text without network I/O
type Simulated struct {
	// Delay is the artificial processing latency. Zero gets the default.
	Delay time.Duration
}

const defaultProcessingDelay = 50 * time.Millisecond

// NewSimulated creates a simulated recognizer with the default processing delay
func NewSimulated() *Simulated {
	return &Simulated{Delay: defaultProcessingDelay}
}

// Available always reports true for the simulated recognizer
func (s *Simulated) Available() bool {
	return true
}

// Recognize returns the canned sentence for lang, falling back to the
// default language's sentence for unrecognized tags.
func (s *Simulated) Recognize(ctx context.Context, payload []byte, lang transcript.Language) (*Result, error) {
	delay := s.Delay
	if delay <= 0 {
		delay = defaultProcessingDelay
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	resolved := lang
	text, ok := cannedSentences[resolved]
	if !ok {
		resolved = transcript.LangEnglish
		text = cannedSentences[resolved]
	}

	return &Result{
		Text:       text,
		Language:   resolved,
		Confidence: simulatedConfidence,
	}, nil
}
