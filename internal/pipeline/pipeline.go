package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/observability"
	"github.com/sinrajat43/audio-flow/internal/recognition"
	"github.com/sinrajat43/audio-flow/internal/resilience"
	"github.com/sinrajat43/audio-flow/internal/transcript"
	"github.com/sinrajat43/audio-flow/internal/transport"
)

// Pipeline orchestrates one batch transcription: validate, fetch, recognize,
// persist. Adapters and policy are injected at startup; the pipeline holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	fetcher    transport.Fetcher
	recognizer recognition.Recognizer
	store      transcript.Store
	policy     resilience.Policy
	fetchOpts  transport.Options
	origin     transcript.Origin
	logger     zerolog.Logger
}

// New creates a batch pipeline. origin fixes the text-producing path for the
// process lifetime: OriginSimulated templates text locally without touching
// the recognizer, OriginProvider calls it.
func New(
	fetcher transport.Fetcher,
	recognizer recognition.Recognizer,
	store transcript.Store,
	policy resilience.Policy,
	fetchOpts transport.Options,
	origin transcript.Origin,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		recognizer: recognizer,
		store:      store,
		policy:     policy,
		fetchOpts:  fetchOpts,
		origin:     origin,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// IsValidURL reports whether rawURL is a syntactically valid http/https URL
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Transcribe runs the full batch flow for one URL. It persists exactly one
// record on success and none on any failure.
func (p *Pipeline) Transcribe(ctx context.Context, rawURL string, lang transcript.Language) (*transcript.Record, error) {
	start := time.Now()
	logger := p.logger.With().Str("url", rawURL).Logger()

	if !IsValidURL(rawURL) {
		return nil, ErrInvalidURL
	}

	payload, err := p.fetch(ctx, rawURL, logger)
	if err != nil {
		observability.RecordTranscription(string(p.origin), false, time.Since(start))
		return nil, err
	}

	rec := &transcript.Record{
		AudioReference: rawURL,
		Origin:         p.origin,
	}

	if p.origin == transcript.OriginSimulated {
		// No recognizer involved: the text is templated locally, so there is
		// no network call to retry.
		rec.Text = simulatedSentence(rawURL, time.Now().UTC())
	} else {
		result, err := p.recognize(ctx, payload, lang, logger)
		if err != nil {
			observability.RecordTranscription(string(p.origin), false, time.Since(start))
			return nil, err
		}
		rec.Text = result.Text
		rec.Language = result.Language
	}

	created, err := p.store.Create(ctx, rec)
	observability.RecordStoreOperation("create", err == nil)
	if err != nil {
		observability.RecordTranscription(string(p.origin), false, time.Since(start))
		return nil, &StorageError{Err: err}
	}

	logger.Info().
		Str("id", created.ID).
		Str("origin", string(created.Origin)).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription persisted")
	observability.RecordTranscription(string(p.origin), true, time.Since(start))

	return created, nil
}

func (p *Pipeline) fetch(ctx context.Context, rawURL string, logger zerolog.Logger) ([]byte, error) {
	policy := p.policy
	policy.OnRetry = func(attempt int, err error) {
		observability.RecordRetry("fetch")
		logger.Warn().Int("attempt", attempt).Err(err).Msg("Download failed, retrying")
	}

	var result *transport.Result
	err := resilience.Do(ctx, policy, func() error {
		res, err := p.fetcher.Fetch(ctx, rawURL, p.fetchOpts)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, &DownloadError{URL: rawURL, Err: err}
	}
	return result.Body, nil
}

func (p *Pipeline) recognize(ctx context.Context, payload []byte, lang transcript.Language, logger zerolog.Logger) (*recognition.Result, error) {
	policy := p.policy
	policy.OnRetry = func(attempt int, err error) {
		observability.RecordRetry("recognize")
		logger.Warn().Int("attempt", attempt).Err(err).Msg("Recognition failed, retrying")
	}

	var result *recognition.Result
	err := resilience.Do(ctx, policy, func() error {
		res, err := p.recognizer.Recognize(ctx, payload, lang)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, &RecognitionError{Err: err}
	}
	return result, nil
}

// simulatedSentence derives the deterministic templated text for the
// simulated path from the URL's filename and the current time.
func simulatedSentence(rawURL string, now time.Time) string {
	u, _ := url.Parse(rawURL)
	name := "audio"
	if u != nil && u.Path != "" {
		if idx := strings.LastIndex(u.Path, "/"); idx >= 0 && idx+1 < len(u.Path) {
			name = u.Path[idx+1:]
		}
	}
	return fmt.Sprintf("Simulated transcription of %s generated at %s.", name, now.Format(time.RFC3339))
}
