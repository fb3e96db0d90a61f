package relay

import "encoding/json"

// Event is a single payload travelling over the relay backplane. An empty
// AgentID addresses every connected client, otherwise only the connections
// registered under that agent receive the payload.
type Event struct {
	AgentID string          `json:"agentId,omitempty"`
	Payload json.RawMessage `json:"payload"`
}
