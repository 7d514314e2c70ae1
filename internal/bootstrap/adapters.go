// Package bootstrap selects the process-wide adapter implementations from
// configuration, once at startup. Downstream code depends only on the
// adapter interfaces; changing a selection requires a restart.
package bootstrap

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/config"
	"github.com/sinrajat43/audio-flow/internal/recognition"
	"github.com/sinrajat43/audio-flow/internal/transcript"
	"github.com/sinrajat43/audio-flow/internal/transport"
)

// SelectFetcher returns the transport adapter: simulated in test mode,
// real network otherwise.
func SelectFetcher(cfg *config.Config) transport.Fetcher {
	if cfg.TestMode {
		return transport.NewSimulated()
	}
	return transport.NewHTTPFetcher()
}

// SelectRecognizer returns the recognition adapter: the Deepgram-backed one
// when both provider credentials are present, simulated otherwise.
func SelectRecognizer(cfg *config.Config, logger zerolog.Logger) recognition.Recognizer {
	if cfg.HasProviderCredentials() {
		return recognition.NewDeepgram(recognition.DeepgramConfig{
			APIKey:    cfg.DeepgramAPIKey,
			ProjectID: cfg.DeepgramProjectID,
			Model:     cfg.DeepgramModel,
		}, logger)
	}
	return recognition.NewSimulated()
}

// SelectOrigin returns the origin tag batch records will carry for the
// process lifetime, matching the recognizer selection.
func SelectOrigin(cfg *config.Config) transcript.Origin {
	if cfg.HasProviderCredentials() {
		return transcript.OriginProvider
	}
	return transcript.OriginSimulated
}

// SelectStore returns the persistence backend: in-memory in test mode or
// when no Mongo URI is configured, MongoDB otherwise.
func SelectStore(ctx context.Context, cfg *config.Config) (transcript.Store, error) {
	if cfg.TestMode || cfg.MongoURI == "" {
		return transcript.NewMemoryStore(), nil
	}
	return transcript.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
}
