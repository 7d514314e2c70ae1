package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/transcript"
)

// fakeConn feeds scripted inbound frames to the session and captures every
// outbound message in order.
type fakeConn struct {
	inbound chan []byte

	mu      sync.Mutex
	written []map[string]interface{}
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.inbound
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, msg, nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	c.mu.Lock()
	c.written = append(c.written, generic)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) messages() []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]interface{}, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeConn) sendChunk(t *testing.T, data string, isLast bool) {
	t.Helper()
	raw, err := json.Marshal(chunkMessage{Type: messageChunk, Data: data, IsLast: isLast})
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	c.inbound <- raw
}

func newTestSession(conn Conn, store transcript.Store) *Session {
	s := NewSession("test-session", conn, store, "", 20*time.Millisecond, zerolog.Nop())
	s.settleDelay = 5 * time.Millisecond
	return s
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
}

func TestSession_TwoChunkLifecycle(t *testing.T) {
	conn := newFakeConn()
	store := transcript.NewMemoryStore()
	s := newTestSession(conn, store)

	go s.Run(context.Background())

	conn.sendChunk(t, "first fragment", false)
	conn.sendChunk(t, "second fragment", true)
	waitDone(t, s)

	msgs := conn.messages()
	if len(msgs) < 2 {
		t.Fatalf("Expected at least welcome and final messages, got %d", len(msgs))
	}

	// Welcome partial is always first.
	if msgs[0]["type"] != messagePartial {
		t.Errorf("Expected first message to be a partial, got %v", msgs[0]["type"])
	}

	// Final is always last, and nothing but interior partials sit between.
	last := msgs[len(msgs)-1]
	if last["type"] != messageFinal {
		t.Errorf("Expected last message to be final, got %v", last["type"])
	}
	finalCount := 0
	for i, msg := range msgs {
		switch msg["type"] {
		case messageFinal:
			finalCount++
			if i != len(msgs)-1 {
				t.Error("Found a message after the final message")
			}
		case messagePartial:
		default:
			t.Errorf("Unexpected message type %v", msg["type"])
		}
	}
	if finalCount != 1 {
		t.Errorf("Expected exactly one final message, got %d", finalCount)
	}

	// Exactly one record, carrying the session metadata.
	page, err := store.List(context.Background(), transcript.Query{DaysBack: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Expected exactly 1 persisted record, got %d", len(page.Items))
	}
	rec := page.Items[0]
	if rec.Session == nil {
		t.Fatal("Expected session metadata on the record")
	}
	if rec.Session.ChunkCount != 2 {
		t.Errorf("Expected chunkCount 2, got %d", rec.Session.ChunkCount)
	}
	if rec.Session.SessionID != s.ID() {
		t.Errorf("Expected sessionID %s, got %s", s.ID(), rec.Session.SessionID)
	}
	if last["id"] != rec.ID {
		t.Errorf("Expected final message id %v to match record id %s", last["id"], rec.ID)
	}

	if s.State() != StateClosed {
		t.Errorf("Expected Closed state, got %v", s.State())
	}
}

func TestSession_InteriorPartialsWhileReceiving(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(conn, transcript.NewMemoryStore())

	go s.Run(context.Background())

	conn.sendChunk(t, "fragment", false)
	// Let several emission periods elapse before finalizing.
	time.Sleep(90 * time.Millisecond)
	conn.sendChunk(t, "fragment", true)
	waitDone(t, s)

	msgs := conn.messages()
	partials := 0
	for _, msg := range msgs {
		if msg["type"] == messagePartial {
			partials++
		}
	}
	// Welcome plus at least one interior partial.
	if partials < 2 {
		t.Errorf("Expected interior partials during receiving, got %d partial messages", partials)
	}
}

func TestSession_PartialConfidenceAndTextGrowWithChunks(t *testing.T) {
	if partialText(1) == "" {
		t.Error("Expected non-empty partial text after one chunk")
	}
	if len(partialText(2)) <= len(partialText(1)) {
		t.Error("Expected more revealed words with more chunks")
	}
	if partialText(1000) != partialText(100) {
		t.Error("Expected reveal capped at the vocabulary length")
	}

	if partialConfidence(2) <= partialConfidence(1) {
		t.Error("Expected confidence to grow with chunk count")
	}
	if partialConfidence(1000) != confidenceCeiling {
		t.Errorf("Expected confidence capped at %v, got %v", confidenceCeiling, partialConfidence(1000))
	}
}

func TestSession_MalformedMessageKeepsConnectionOpen(t *testing.T) {
	conn := newFakeConn()
	store := transcript.NewMemoryStore()
	s := newTestSession(conn, store)

	go s.Run(context.Background())

	conn.inbound <- []byte("not json at all")
	conn.inbound <- []byte(`{"type":"bogus"}`)
	conn.sendChunk(t, "fragment", true)
	waitDone(t, s)

	msgs := conn.messages()
	errorCount := 0
	for _, msg := range msgs {
		if msg["type"] == messageError {
			errorCount++
		}
	}
	if errorCount != 2 {
		t.Errorf("Expected 2 error messages for malformed input, got %d", errorCount)
	}

	// The session still finalized normally afterwards.
	if msgs[len(msgs)-1]["type"] != messageFinal {
		t.Error("Expected session to finalize after malformed input")
	}
	page, _ := store.List(context.Background(), transcript.Query{DaysBack: 1, Page: 1, PageSize: 10})
	if len(page.Items) != 1 {
		t.Errorf("Expected 1 record, got %d", len(page.Items))
	}
	if page.Items[0].Session.ChunkCount != 1 {
		t.Errorf("Malformed messages must not count as chunks, got %d", page.Items[0].Session.ChunkCount)
	}
}

func TestSession_TransportErrorFailsWithoutRecord(t *testing.T) {
	conn := newFakeConn()
	store := transcript.NewMemoryStore()
	s := newTestSession(conn, store)

	go s.Run(context.Background())

	conn.sendChunk(t, "fragment", false)
	time.Sleep(10 * time.Millisecond)
	close(conn.inbound) // simulates the transport dropping
	waitDone(t, s)

	if s.State() != StateFailed {
		t.Errorf("Expected Failed state, got %v", s.State())
	}

	// No partial record is ever persisted for an abandoned session.
	page, err := store.List(context.Background(), transcript.Query{DaysBack: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("Expected no persisted records, got %d", len(page.Items))
	}
}

func TestSession_StorageFailureClosesWithoutFinal(t *testing.T) {
	conn := newFakeConn()
	s := newTestSession(conn, &failingStore{})

	go s.Run(context.Background())

	conn.sendChunk(t, "fragment", true)
	waitDone(t, s)

	msgs := conn.messages()
	last := msgs[len(msgs)-1]
	if last["type"] != messageError {
		t.Errorf("Expected trailing error message, got %v", last["type"])
	}
	if last["code"] != "storage_failed" {
		t.Errorf("Expected code 'storage_failed', got %v", last["code"])
	}
	if s.State() != StateClosed {
		t.Errorf("Expected Closed state, got %v", s.State())
	}
}

func TestFinalText_Deterministic(t *testing.T) {
	if finalText("abc", 3) != finalText("abc", 3) {
		t.Error("Expected deterministic final text")
	}
	if finalText("abc", 3) == finalText("abc", 4) {
		t.Error("Expected final text to depend on chunk count")
	}
	if finalText("abc", 3) == finalText("xyz", 3) {
		t.Error("Expected final text to depend on session id")
	}
}

type failingStore struct{}

func (s *failingStore) Create(ctx context.Context, rec *transcript.Record) (*transcript.Record, error) {
	return nil, errors.New("database write failed")
}

func (s *failingStore) List(ctx context.Context, q transcript.Query) (*transcript.Page, error) {
	return nil, errors.New("database read failed")
}

func (s *failingStore) Ping(ctx context.Context) error { return nil }

func (s *failingStore) Close(ctx context.Context) error { return nil }
