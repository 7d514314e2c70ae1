package transcript

import (
	"fmt"
	"time"
)

// Origin tags a record with the pipeline that produced its text
type Origin string

const (
	OriginSimulated Origin = "simulated"
	OriginProvider  Origin = "provider"
)

// ParseOrigin validates an origin value supplied by a caller
func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case OriginSimulated, OriginProvider:
		return Origin(s), nil
	}
	return "", fmt.Errorf("unknown origin %q", s)
}

// Language is a supported recognition language tag
type Language string

const (
	LangEnglish    Language = "en-US"
	LangSpanish    Language = "es-ES"
	LangFrench     Language = "fr-FR"
	LangGerman     Language = "de-DE"
	LangItalian    Language = "it-IT"
	LangPortuguese Language = "pt-BR"
	LangJapanese   Language = "ja-JP"
)

// SupportedLanguages lists all language tags the service accepts
var SupportedLanguages = []Language{
	LangEnglish,
	LangSpanish,
	LangFrench,
	LangGerman,
	LangItalian,
	LangPortuguese,
	LangJapanese,
}

// ParseLanguage validates a language tag supplied by a caller.
// The empty string is valid and means "no language specified".
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return "", nil
	}
	for _, lang := range SupportedLanguages {
		if Language(s) == lang {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unsupported language tag %q", s)
}

// SessionMetadata describes the streaming session a record was derived from
type SessionMetadata struct {
	SessionID  string        `bson:"session_id" json:"sessionId"`
	Duration   time.Duration `bson:"duration_ms" json:"durationMs"`
	ChunkCount int           `bson:"chunk_count" json:"chunkCount"`
}

// Record is the durable output of one accepted transcription request or one
// completed streaming session. Records are append-only: the store assigns ID
// and CreatedAt on insertion and no field is ever mutated afterwards.
type Record struct {
	ID             string           `bson:"-" json:"id"`
	AudioReference string           `bson:"audio_reference" json:"audioReference"`
	Text           string           `bson:"text" json:"text"`
	Origin         Origin           `bson:"origin" json:"origin"`
	Language       Language         `bson:"language,omitempty" json:"language,omitempty"`
	Session        *SessionMetadata `bson:"session,omitempty" json:"session,omitempty"`
	CreatedAt      time.Time        `bson:"created_at" json:"createdAt"`
}
