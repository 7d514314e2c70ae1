package stream

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sinrajat43/audio-flow/internal/observability"
	"github.com/sinrajat43/audio-flow/internal/transcript"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin validation is a deployment concern; allow all here.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Handler upgrades HTTP requests to streaming transcription sessions
func Handler(store transcript.Store, partialInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, err := transcript.ParseLanguage(r.URL.Query().Get("language"))
		if err != nil {
			http.Error(w, "unsupported language tag", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("Failed to upgrade connection")
			return
		}

		sessionID := uuid.New().String()
		logger := observability.WithCorrelationID(observability.NewCorrelationID())

		session := NewSession(sessionID, conn, store, lang, partialInterval, logger)
		session.Run(r.Context())
	}
}
