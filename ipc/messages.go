package ipc

import "encoding/json"

// Message types carried in Envelope.Type.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeNegotiate = "negotiate"
	TypeCombat    = "combat"
	TypeActions   = "actions"
)

// HelloMessage opens a session. Client is free-form and only logged.
type HelloMessage struct {
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
}

// AckMessage answers hello with the bot's identity.
type AckMessage struct {
	Status   string `json:"status"`
	Name     string `json:"name,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Version  string `json:"version,omitempty"`
}

// ActionsMessage answers negotiate and combat. Actions is always a JSON
// array, empty when no decision could be made.
type ActionsMessage struct {
	DecisionID string          `json:"decisionId,omitempty"`
	Tier       string          `json:"tier"`
	Actions    json.RawMessage `json:"actions"`
}
