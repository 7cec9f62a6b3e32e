package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/cato/pkg/types"
)

// Request represents an incoming NDJSON request.
type Request struct {
	Type    string          `json:"type"` // "check" | "close"
	Payload json.RawMessage `json:"payload"`
}

// CheckPayload is the payload for "check" requests. Content is base64 in
// the JSON encoding; Filename supplies the extension for format routing.
type CheckPayload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// Response represents an outgoing NDJSON response.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "check" | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses.
type ReadyData struct {
	Version string `json:"version"`
}

// CheckData is the data field for "check" responses.
type CheckData struct {
	Outcome types.Outcome `json:"outcome"`
}
