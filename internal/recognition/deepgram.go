package recognition

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/observability"
	"github.com/sinrajat43/audio-flow/internal/resilience"
	"github.com/sinrajat43/audio-flow/internal/transcript"
)

// recognizeTimeout is the hard ceiling on one provider session, independent
// of caller cancellation.
const recognizeTimeout = 60 * time.Second

// writeChunkSize is the size of audio slices streamed to the provider.
const writeChunkSize = 8192

// DeepgramConfig carries the provider credentials and model choice
type DeepgramConfig struct {
	APIKey    string
	ProjectID string
	Model     string
}

// Deepgram is the provider-backed Recognizer. It streams the payload over
// Deepgram's listen WebSocket, accumulates the final transcript events into
// one joined body, and resolves when the provider signals completion, the
// caller cancels, or the hard timeout elapses.
type Deepgram struct {
	cfg     DeepgramConfig
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewDeepgram creates a Deepgram recognizer
func NewDeepgram(cfg DeepgramConfig, logger zerolog.Logger) *Deepgram {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	breaker := resilience.NewCircuitBreaker("deepgram", 5, 30*time.Second)
	breaker.OnStateChange(func(state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(breaker.Name(), int(state))
	})
	return &Deepgram{
		cfg:     cfg,
		breaker: breaker,
		logger:  logger.With().Str("component", "deepgram").Logger(),
	}
}

// Available reports whether both provider credentials are present
func (d *Deepgram) Available() bool {
	return d.cfg.APIKey != "" && d.cfg.ProjectID != ""
}

// sessionCollector implements the live message callback interface. It embeds
// the default handler and overrides only transcript and error handling.
type sessionCollector struct {
	*websocketv1api.DefaultCallbackHandler

	mu         sync.Mutex
	finals     []string
	confidence float64
	duration   float64

	completed chan struct{} // closed when the provider signals end of session
	once      sync.Once
	errCh     chan error
}

func newSessionCollector() *sessionCollector {
	return &sessionCollector{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		completed:              make(chan struct{}),
		errCh:                  make(chan error, 1),
	}
}

// Message accumulates final transcript events and watches for the provider's
// end-of-session metadata.
func (c *sessionCollector) Message(msg *msginterfaces.MessageResponse) error {
	if msg == nil {
		return nil
	}

	switch msg.Type {
	case "Metadata":
		// The session summary arrives once the provider has flushed all
		// results after Finish.
		c.once.Do(func() { close(c.completed) })

	case "Results", "Message":
		if len(msg.Channel.Alternatives) == 0 {
			return nil
		}
		alt := msg.Channel.Alternatives[0]
		if alt.Transcript == "" || !msg.IsFinal {
			return nil
		}

		c.mu.Lock()
		c.finals = append(c.finals, alt.Transcript)
		if alt.Confidence > 0 {
			c.confidence = alt.Confidence
		}
		c.duration += msg.Duration
		c.mu.Unlock()
	}

	return nil
}

// Error surfaces provider errors to the waiting Recognize call
func (c *sessionCollector) Error(errorResponse *msginterfaces.ErrorResponse) error {
	select {
	case c.errCh <- fmt.Errorf("provider error: %s", errorResponse.Description):
	default:
	}
	return nil
}

func (c *sessionCollector) snapshot() (string, float64, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.finals, " "), c.confidence, time.Duration(c.duration * float64(time.Second))
}

// Recognize streams payload to Deepgram and waits for the joined transcript.
// On the hard timeout, accumulated text is returned as a best-effort result;
// timeout with no text is a failure.
func (d *Deepgram) Recognize(ctx context.Context, payload []byte, lang transcript.Language) (*Result, error) {
	if !d.Available() {
		return nil, fmt.Errorf("deepgram credentials are not configured")
	}

	resolved := lang
	if resolved == "" {
		resolved = transcript.LangEnglish
	}

	var result *Result
	err := d.breaker.Call(func() error {
		r, err := d.recognizeOnce(ctx, payload, resolved)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	observability.UpdateCircuitBreakerState(d.breaker.Name(), int(d.breaker.GetState()))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Deepgram) recognizeOnce(ctx context.Context, payload []byte, lang transcript.Language) (*Result, error) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:     d.cfg.Model,
		Language:  string(lang),
		Punctuate: true,
		Channels:  1,
	}

	collector := newSessionCollector()
	client, err := listenClient.NewWSUsingCallback(
		sessionCtx,
		d.cfg.APIKey,
		&interfaces.ClientOptions{},
		tOptions,
		collector,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	start := time.Now()
	for offset := 0; offset < len(payload); offset += writeChunkSize {
		end := offset + writeChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if _, err := client.Write(payload[offset:end]); err != nil {
			return nil, fmt.Errorf("failed to stream payload: %w", err)
		}
	}
	client.Finish()

	deadline := time.NewTimer(recognizeTimeout)
	defer deadline.Stop()

	select {
	case <-collector.completed:
		text, confidence, duration := collector.snapshot()
		if text == "" {
			return nil, fmt.Errorf("provider returned no transcript")
		}
		d.logger.Debug().
			Dur("elapsed", time.Since(start)).
			Float64("confidence", confidence).
			Msg("Provider session completed")
		return &Result{Text: text, Language: lang, Confidence: confidence, Duration: duration}, nil

	case err := <-collector.errCh:
		return nil, err

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-deadline.C:
		// Asymmetric on purpose: accumulated text is returned best-effort,
		// an empty session is a failure.
		text, confidence, duration := collector.snapshot()
		if text == "" {
			return nil, fmt.Errorf("provider session timed out after %v with no transcript", recognizeTimeout)
		}
		d.logger.Warn().
			Dur("timeout", recognizeTimeout).
			Msg("Provider session timed out, returning accumulated transcript")
		return &Result{Text: text, Language: lang, Confidence: confidence, Duration: duration}, nil
	}
}
