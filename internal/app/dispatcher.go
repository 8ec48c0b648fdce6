package app

import (
	"log/slog"

	"townofshadows/internal/domain"
)

// Dispatcher serializes room state into player-specific views and pushes
// them to every registered connection. Pushes are fire-and-forget: a failed
// push deregisters the connection, it is never retried.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// BroadcastViews pushes a fresh per-player view to every connection.
// Connections without a seat in the room (spectators) get the public view.
func (d *Dispatcher) BroadcastViews(room *domain.Room) {
	for playerID, conn := range d.registry.Snapshot() {
		view := domain.BuildView(room, playerID)
		event := domain.NewPlayerEvent(domain.EventViewUpdate, room.ID, playerID, view)
		d.push(playerID, conn, event)
	}
}

// Broadcast sends one event to every connection in the room
func (d *Dispatcher) Broadcast(event *domain.GameEvent) {
	for playerID, conn := range d.registry.Snapshot() {
		d.push(playerID, conn, event)
	}
}

// SendTo sends an event to a single player's connection, if any
func (d *Dispatcher) SendTo(playerID string, event *domain.GameEvent) {
	if conn, ok := d.registry.Get(playerID); ok {
		d.push(playerID, conn, event)
	}
}

func (d *Dispatcher) push(playerID string, conn ClientConnection, event *domain.GameEvent) {
	if err := conn.Send(event); err != nil {
		d.logger.Debug("push failed, dropping connection", "playerID", playerID, "error", err)
		d.registry.Unregister(playerID)
		conn.Close()
	}
}
