package bootstrap

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sinrajat43/audio-flow/internal/config"
	"github.com/sinrajat43/audio-flow/internal/recognition"
	"github.com/sinrajat43/audio-flow/internal/transcript"
	"github.com/sinrajat43/audio-flow/internal/transport"
)

func TestSelectFetcher(t *testing.T) {
	if _, ok := SelectFetcher(&config.Config{TestMode: true}).(*transport.Simulated); !ok {
		t.Error("Expected simulated fetcher in test mode")
	}
	if _, ok := SelectFetcher(&config.Config{TestMode: false}).(*transport.HTTPFetcher); !ok {
		t.Error("Expected HTTP fetcher outside test mode")
	}
}

func TestSelectRecognizer(t *testing.T) {
	logger := zerolog.Nop()

	withCreds := &config.Config{DeepgramAPIKey: "key", DeepgramProjectID: "proj"}
	if _, ok := SelectRecognizer(withCreds, logger).(*recognition.Deepgram); !ok {
		t.Error("Expected Deepgram recognizer with both credentials")
	}

	partial := &config.Config{DeepgramAPIKey: "key"}
	if _, ok := SelectRecognizer(partial, logger).(*recognition.Simulated); !ok {
		t.Error("Expected simulated recognizer with partial credentials")
	}

	none := &config.Config{}
	if _, ok := SelectRecognizer(none, logger).(*recognition.Simulated); !ok {
		t.Error("Expected simulated recognizer without credentials")
	}
}

func TestSelectOrigin(t *testing.T) {
	withCreds := &config.Config{DeepgramAPIKey: "key", DeepgramProjectID: "proj"}
	if SelectOrigin(withCreds) != transcript.OriginProvider {
		t.Error("Expected provider origin with credentials")
	}
	if SelectOrigin(&config.Config{}) != transcript.OriginSimulated {
		t.Error("Expected simulated origin without credentials")
	}
}

func TestSelectStore_MemoryFallbacks(t *testing.T) {
	store, err := SelectStore(context.Background(), &config.Config{TestMode: true, MongoURI: "mongodb://ignored"})
	if err != nil {
		t.Fatalf("SelectStore() failed: %v", err)
	}
	if _, ok := store.(*transcript.MemoryStore); !ok {
		t.Error("Expected memory store in test mode")
	}

	store, err = SelectStore(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("SelectStore() failed: %v", err)
	}
	if _, ok := store.(*transcript.MemoryStore); !ok {
		t.Error("Expected memory store when no Mongo URI is configured")
	}
}
