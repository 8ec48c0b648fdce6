package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventPlayerJoined      EventType = "PLAYER_JOINED"
	EventPlayerLeft        EventType = "PLAYER_LEFT"
	EventPlayerReconnected EventType = "PLAYER_RECONNECTED"
	EventGameStarted       EventType = "GAME_STARTED"
	EventPhaseChanged      EventType = "PHASE_CHANGED"
	EventViewUpdate        EventType = "VIEW_UPDATE"
	EventGameEnded         EventType = "GAME_ENDED"
	EventChat              EventType = "CHAT"
	EventError             EventType = "ERROR"
)

// GameEvent represents an event that occurred in a room
type GameEvent struct {
	Type      EventType   `json:"type"`
	RoomID    string      `json:"roomId"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide game event
func NewEvent(eventType EventType, roomID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific game event
func NewPlayerEvent(eventType EventType, roomID, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// PhaseChangedPayload announces a phase transition to the whole room
type PhaseChangedPayload struct {
	Phase           Phase `json:"phase"`
	Day             int   `json:"day"`
	DeadlineSeconds int   `json:"deadlineSeconds,omitempty"`
}

// GameEndedPayload carries the final reveal
type GameEndedPayload struct {
	Winner Faction      `json:"winner"`
	Roster []PlayerInfo `json:"roster"` // all roles revealed
}

// ChatChannel scopes a chat message
type ChatChannel string

const (
	ChannelPublic ChatChannel = "public"
	ChannelShadow ChatChannel = "shadow"
	ChannelDead   ChatChannel = "dead"
)

// ChatPayload is a relayed chat message
type ChatPayload struct {
	Channel ChatChannel `json:"channel"`
	From    string      `json:"from"`
	Text    string      `json:"text"`
}

// ErrorPayload is sent to a single offending connection
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
