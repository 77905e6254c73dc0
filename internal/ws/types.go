package ws

import (
	"encoding/json"
)

// MessageType names the kind of payload a Message carries.
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeLegalMoves MessageType = "legalMoves"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LegalMovesRequest asks for the destinations of the piece on From.
type LegalMovesRequest struct {
	From string `json:"from"`
}

type LegalMovesResponse struct {
	From  string   `json:"from"`
	Moves []string `json:"moves"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewMessage marshals payload into a Message of the given type.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}
