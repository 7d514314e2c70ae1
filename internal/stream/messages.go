package stream

// chunkMessage is the only inbound message type: one audio payload fragment
// and a flag marking the session's last chunk.
type chunkMessage struct {
	Type   string `json:"type"`
	Data   string `json:"data"`
	IsLast bool   `json:"isLast"`
}

// partialMessage is an interim transcription fragment
type partialMessage struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// finalMessage carries the persisted record's identifier and text.
// It is always the last message of a session.
type finalMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	ID   string `json:"id"`
}

// errorMessage reports a recoverable problem without closing the connection
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

const (
	messagePartial = "partial"
	messageFinal   = "final"
	messageError   = "error"
	messageChunk   = "chunk"
)
