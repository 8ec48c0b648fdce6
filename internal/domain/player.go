package domain

import "time"

// ConnectionStatus represents a player's connection state
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	// StatusForfeited is set once the reconnection grace period expires;
	// the player then counts as abstain/no-action for every quorum check.
	StatusForfeited ConnectionStatus = "FORFEITED"
)

// Player represents a player in a room
type Player struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Role      *Role            `json:"role,omitempty"`
	Alive     bool             `json:"alive"`
	Ready     bool             `json:"ready"`
	Status    ConnectionStatus `json:"status"`
	JoinIndex int              `json:"joinIndex"`
	JoinedAt  time.Time        `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and display name
func NewPlayer(id, name string, joinIndex int) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Alive:     true,
		Status:    StatusConnected,
		JoinIndex: joinIndex,
		JoinedAt:  time.Now(),
	}
}

// IsConnected returns true if the player is currently connected
func (p *Player) IsConnected() bool {
	return p.Status == StatusConnected
}

// Participates reports whether the player still counts toward quorums.
// Forfeited players never block a phase from advancing.
func (p *Player) Participates() bool {
	return p.Alive && p.Status != StatusForfeited
}

// Disconnect marks the player as disconnected
func (p *Player) Disconnect() {
	if p.Status == StatusConnected {
		p.Status = StatusDisconnected
	}
}

// Reconnect restores the player within the grace period
func (p *Player) Reconnect() {
	p.Status = StatusConnected
}

// Forfeit marks the player as permanently absent
func (p *Player) Forfeit() {
	p.Status = StatusForfeited
}

// PlayerInfo is the public view of a player. The role is included only once
// revealed (eliminated, or the game has ended).
type PlayerInfo struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Alive  bool             `json:"alive"`
	Ready  bool             `json:"ready"`
	Status ConnectionStatus `json:"status"`
	Role   *Role            `json:"role,omitempty"`
}

// ToInfo converts a Player to its public view, revealing the role only when allowed
func (p *Player) ToInfo(revealRole bool) PlayerInfo {
	info := PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		Alive:  p.Alive,
		Ready:  p.Ready,
		Status: p.Status,
	}
	if revealRole {
		info.Role = p.Role
	}
	return info
}
