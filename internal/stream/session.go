package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/observability"
	"github.com/sinrajat43/audio-flow/internal/transcript"
)

// State is a streaming session's lifecycle phase
type State int

const (
	StateOpen State = iota
	StateReceiving
	StateFinalizing
	StateClosed
	StateFailed
)

// Conn is the subset of the websocket connection the session needs.
// *websocket.Conn satisfies it; tests substitute a fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// partialVocabulary is the fixed word pool partial fragments are revealed
// from: more chunks received means more words, capped at the pool length.
var partialVocabulary = []string{
	"thank", "you", "for", "your", "patience", "we", "are", "processing",
	"the", "incoming", "audio", "stream", "and", "assembling", "your",
	"transcription", "now",
}

const (
	wordsPerChunk     = 2
	confidenceBase    = 0.5
	confidencePerStep = 0.05
	confidenceCeiling = 0.95
)

// Session owns the state machine for one live connection. Message reception
// and the periodic emission loop run concurrently: the emission loop only
// reads chunksReceived and state, and every connection write happens under
// mu, so the welcome partial is always first, the final message is always
// last, and no partial follows finalization.
type Session struct {
	id     string
	conn   Conn
	store  transcript.Store
	lang   transcript.Language
	logger zerolog.Logger

	partialInterval time.Duration
	settleDelay     time.Duration

	mu             sync.Mutex
	state          State
	startedAt      time.Time
	chunksReceived int
	chunks         [][]byte

	emitOnce sync.Once
	done     chan struct{}
}

// NewSession creates a session for an established connection
func NewSession(id string, conn Conn, store transcript.Store, lang transcript.Language, partialInterval time.Duration, logger zerolog.Logger) *Session {
	if partialInterval <= 0 {
		partialInterval = 500 * time.Millisecond
	}
	return &Session{
		id:              id,
		conn:            conn,
		store:           store,
		lang:            lang,
		logger:          logger.With().Str("session_id", id).Logger(),
		partialInterval: partialInterval,
		settleDelay:     100 * time.Millisecond,
		state:           StateOpen,
		done:            make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle phase
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChunksReceived returns the number of well-formed chunks seen so far
func (s *Session) ChunksReceived() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunksReceived
}

// Done is closed when the session reaches a terminal state
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run drives the session until it closes or fails. It blocks the caller for
// the connection's lifetime.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	s.startedAt = time.Now()

	// The welcome partial is the first message on every session.
	s.writeLocked(partialMessage{
		Type:       messagePartial,
		Text:       fmt.Sprintf("session %s established, awaiting audio chunks", s.id),
		Confidence: 0,
	})
	s.state = StateReceiving
	s.mu.Unlock()

	observability.StreamSessionStarted()
	defer func() {
		observability.StreamSessionEnded(time.Since(s.startedAt))
		close(s.done)
	}()

	s.logger.Info().Msg("Streaming session opened")

	for {
		if ctx.Err() != nil {
			s.fail(ctx.Err())
			return
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			// Transport-level failure or client close. No record is
			// persisted for an abandoned session.
			s.fail(err)
			return
		}

		var msg chunkMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != messageChunk {
			// Malformed input never changes state; the connection stays open.
			s.sendError("message is not a well-formed chunk", "invalid_message")
			continue
		}

		if s.handleChunk(ctx, msg) {
			return
		}
	}
}

// handleChunk ingests one well-formed chunk. It returns true once the
// session has finalized.
func (s *Session) handleChunk(ctx context.Context, msg chunkMessage) bool {
	s.mu.Lock()
	if s.state != StateReceiving {
		s.mu.Unlock()
		return true
	}

	s.chunks = append(s.chunks, []byte(msg.Data))
	s.chunksReceived++
	first := s.chunksReceived == 1
	s.mu.Unlock()

	if first && !msg.IsLast {
		s.emitOnce.Do(func() { go s.emitLoop() })
	}

	if msg.IsLast {
		s.finalize(ctx)
		return true
	}
	return false
}

// emitLoop emits partial notifications on a fixed cadence while the session
// is receiving. It terminates as soon as the session leaves Receiving.
func (s *Session) emitLoop() {
	ticker := time.NewTicker(s.partialInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state != StateReceiving {
				s.mu.Unlock()
				return
			}
			n := s.chunksReceived
			s.writeLocked(partialMessage{
				Type:       messagePartial,
				Text:       partialText(n),
				Confidence: partialConfidence(n),
			})
			s.mu.Unlock()
		}
	}
}

// finalize persists the session's single record and emits the final message
func (s *Session) finalize(ctx context.Context) {
	s.mu.Lock()
	s.state = StateFinalizing
	chunks := s.chunksReceived
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	// Let any in-flight emission-loop iteration settle. The loop observes
	// Finalizing on its next tick and stops, so nothing is emitted after
	// this point but us.
	time.Sleep(s.settleDelay)

	rec := &transcript.Record{
		AudioReference: fmt.Sprintf("stream://sessions/%s", s.id),
		Text:           finalText(s.id, chunks),
		Origin:         transcript.OriginSimulated,
		Language:       s.lang,
		Session: &transcript.SessionMetadata{
			SessionID:  s.id,
			Duration:   elapsed,
			ChunkCount: chunks,
		},
	}

	created, err := s.store.Create(ctx, rec)
	observability.RecordStoreOperation("create", err == nil)
	if err != nil {
		// Persistence failure is fatal to the session: report and close.
		s.logger.Error().Err(err).Msg("Failed to persist session record")
		s.sendError("failed to persist transcription", "storage_failed")
		s.close()
		return
	}

	s.mu.Lock()
	s.writeLocked(finalMessage{
		Type: messageFinal,
		Text: created.Text,
		ID:   created.ID,
	})
	s.state = StateClosed
	s.mu.Unlock()

	_ = s.conn.Close()

	s.logger.Info().
		Str("record_id", created.ID).
		Int("chunks", chunks).
		Dur("elapsed", elapsed).
		Msg("Streaming session finalized")
}

// fail marks the session Failed after a transport-level error
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.mu.Unlock()

	_ = s.conn.Close()
	s.logger.Warn().Err(err).Msg("Streaming session failed")
}

// close transitions to Closed and shuts the connection
func (s *Session) close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	_ = s.conn.Close()
}

func (s *Session) sendError(message, code string) {
	s.mu.Lock()
	s.writeLocked(errorMessage{Type: messageError, Message: message, Code: code})
	s.mu.Unlock()
}

// writeLocked writes one outbound message. Callers must hold mu.
func (s *Session) writeLocked(v interface{}) {
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write message")
		return
	}
	switch v.(type) {
	case partialMessage:
		observability.RecordStreamMessage(messagePartial)
	case finalMessage:
		observability.RecordStreamMessage(messageFinal)
	case errorMessage:
		observability.RecordStreamMessage(messageError)
	}
}

// partialText reveals words from the fixed vocabulary in proportion to the
// current chunk count.
func partialText(chunks int) string {
	reveal := chunks * wordsPerChunk
	if reveal > len(partialVocabulary) {
		reveal = len(partialVocabulary)
	}
	if reveal == 0 {
		return ""
	}
	return strings.Join(partialVocabulary[:reveal], " ")
}

// partialConfidence grows monotonically with the chunk count up to the ceiling
func partialConfidence(chunks int) float64 {
	c := confidenceBase + confidencePerStep*float64(chunks)
	if c > confidenceCeiling {
		return confidenceCeiling
	}
	return c
}

// finalText is a deterministic function of session id and total chunk count
func finalText(sessionID string, chunks int) string {
	return fmt.Sprintf("Transcription for session %s assembled from %d audio chunks: %s.",
		sessionID, chunks, strings.Join(partialVocabulary, " "))
}
