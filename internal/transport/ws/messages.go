package ws

import "time"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgSubmitNightAction MessageType = "submit_night_action"
	MsgCastVote          MessageType = "cast_vote"
	MsgReady             MessageType = "ready"
	MsgChat              MessageType = "chat"
	MsgPing              MessageType = "ping"
)

// Server → Client message types. Game events (phase-changed, view updates,
// game-ended, chat) are delivered as domain.GameEvent envelopes; these cover
// the connection-level conversation.
const (
	MsgConnected MessageType = "connected"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a connection-level message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SubmitNightActionPayload is the payload for submit_night_action
type SubmitNightActionPayload struct {
	TargetID string `json:"targetId"`
}

// CastVotePayload is the payload for cast_vote; target "ABSTAIN" skips
type CastVotePayload struct {
	TargetID string `json:"targetId"`
}

// ChatMessagePayload is the payload for chat
type ChatMessagePayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// ConnectedPayload is the payload for connected
type ConnectedPayload struct {
	PlayerID  string      `json:"playerId"`
	RoomID    string      `json:"roomId"`
	Spectator bool        `json:"spectator,omitempty"`
	View      interface{} `json:"view"`
}

// ErrorPayload is the payload for error
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeInvalidPhase   = "INVALID_PHASE"
	ErrCodeInvalidTarget  = "INVALID_TARGET"
	ErrCodeNotAlive       = "NOT_ALIVE"
	ErrCodeNoNightAbility = "NO_NIGHT_ABILITY"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
