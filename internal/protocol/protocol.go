package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypeTradeCmd = "TRADE_CMD"
	TypeEvent    = "EVENT"
)

// Event is a single server->client notification. Kept schemaless on the Go
// side so handlers can attach op-specific fields without a type per event.
type Event map[string]any

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
