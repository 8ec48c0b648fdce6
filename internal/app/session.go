package app

import (
	"log/slog"
	"sync"
	"time"

	"townofshadows/internal/domain"
)

// RoomSession wraps a room with the concurrency scope the game state machine
// requires: every mutation goes through one mutex, so there is exactly one
// writer per room at any time. Timers and websocket goroutines call back in
// through the same lock.
type RoomSession struct {
	room       *domain.Room
	mu         sync.Mutex
	registry   *Registry
	dispatcher *Dispatcher
	logger     *slog.Logger

	// phaseGen invalidates phase timers scheduled for an earlier phase
	phaseGen    int
	phaseTimer  *time.Timer
	graceTimers map[string]*time.Timer

	lastActive time.Time
	closed     bool
}

// NewRoomSession creates a session around the given room
func NewRoomSession(room *domain.Room, logger *slog.Logger) *RoomSession {
	registry := NewRegistry()
	return &RoomSession{
		room:        room,
		registry:    registry,
		dispatcher:  NewDispatcher(registry, logger),
		logger:      logger.With("roomId", room.ID),
		graceTimers: make(map[string]*time.Timer),
		lastActive:  time.Now(),
	}
}

// RoomID returns the room identifier
func (s *RoomSession) RoomID() string {
	return s.room.ID
}

// Phase returns the current phase
func (s *RoomSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase
}

// PlayerCount returns the number of seated players
func (s *RoomSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.room.Players)
}

// Summary returns the public listing entry
func (s *RoomSession) Summary() domain.RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Summary()
}

// View builds the room view for one player
func (s *RoomSession) View(playerID string) *domain.RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.BuildView(s.room, playerID)
}

// IsExpired reports whether the idle-reaper may reclaim this room
func (s *RoomSession) IsExpired(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.room.Phase.IsTerminal() && len(s.room.Players) > 0 {
		return false
	}
	return now.Sub(s.lastActive) > idle
}

// Join seats a new player. Lobby only.
func (s *RoomSession) Join(playerID, name string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	player, err := s.room.AddPlayer(playerID, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("player joined", "playerId", playerID, "name", name)
	s.dispatcher.Broadcast(domain.NewEvent(domain.EventPlayerJoined, s.room.ID, player.ToInfo(false)))
	s.dispatcher.BroadcastViews(s.room)
	return player, nil
}

// Leave removes the player in the lobby, or marks them disconnected once the
// game has started so role-count invariants stay intact.
func (s *RoomSession) Leave(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.room.Phase == domain.PhaseLobby {
		if err := s.room.RemovePlayer(playerID); err != nil {
			return err
		}
		s.registry.Unregister(playerID)
		s.dispatcher.Broadcast(domain.NewEvent(domain.EventPlayerLeft, s.room.ID, playerID))
		s.dispatcher.BroadcastViews(s.room)
		return nil
	}

	s.disconnectLocked(playerID)
	return nil
}

// Start begins the game: roles are assigned and the first night opens
func (s *RoomSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.room.Start(); err != nil {
		return err
	}

	s.logger.Info("game started", "players", len(s.room.Players))
	s.dispatcher.Broadcast(domain.NewEvent(domain.EventGameStarted, s.room.ID, nil))
	s.schedulePhaseLocked(s.room.Settings.NightDuration)
	s.announcePhaseLocked()
	return nil
}

// SubmitNightAction records a night action; the night ends early once every
// capable participant has submitted.
func (s *RoomSession) SubmitNightAction(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.room.SubmitNightAction(playerID, targetID); err != nil {
		return err
	}

	s.dispatcher.BroadcastViews(s.room)
	s.maybeAdvanceLocked()
	return nil
}

// CastVote records a ballot; the vote closes early once every participant
// has one.
func (s *RoomSession) CastVote(voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.room.CastVote(voterID, targetID); err != nil {
		return err
	}

	s.dispatcher.BroadcastViews(s.room)
	s.maybeAdvanceLocked()
	return nil
}

// Ready flags a player as done with discussion; a full quorum ends the phase
func (s *RoomSession) Ready(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.room.SetReady(playerID); err != nil {
		return err
	}

	s.dispatcher.BroadcastViews(s.room)
	s.maybeAdvanceLocked()
	return nil
}

// Chat relays a chat message on the given channel. The shadow channel is
// limited to shadow-faction players, the dead channel to eliminated ones.
func (s *RoomSession) Chat(playerID string, channel domain.ChatChannel, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	sender, err := s.room.GetPlayer(playerID)
	if err != nil {
		return err
	}

	switch channel {
	case domain.ChannelPublic:
	case domain.ChannelShadow:
		if sender.Role == nil || sender.Role.Faction != domain.FactionShadow {
			return domain.ErrInvalidTarget
		}
	case domain.ChannelDead:
		if sender.Alive {
			return domain.ErrInvalidTarget
		}
	default:
		return domain.ErrInvalidTarget
	}

	event := domain.NewEvent(domain.EventChat, s.room.ID, domain.ChatPayload{
		Channel: channel,
		From:    sender.Name,
		Text:    text,
	})

	if channel == domain.ChannelPublic {
		s.dispatcher.Broadcast(event)
		return nil
	}

	for connID := range s.registry.Snapshot() {
		member, err := s.room.GetPlayer(connID)
		if err != nil {
			continue
		}
		switch channel {
		case domain.ChannelShadow:
			if member.Role != nil && member.Role.Faction == domain.FactionShadow {
				s.dispatcher.SendTo(connID, event)
			}
		case domain.ChannelDead:
			if !member.Alive {
				s.dispatcher.SendTo(connID, event)
			}
		}
	}
	return nil
}

// Attach binds a live connection to a seated player. Reconnecting within the
// grace period restores the same seat, role and alive state untouched.
func (s *RoomSession) Attach(playerID string, conn ClientConnection) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	player, err := s.room.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	s.registry.Register(playerID, conn)

	if !player.IsConnected() {
		player.Reconnect()
		s.cancelGraceLocked(playerID)
		s.logger.Info("player reconnected", "playerId", playerID)
		s.dispatcher.Broadcast(domain.NewEvent(domain.EventPlayerReconnected, s.room.ID, player.ToInfo(false)))
	}

	s.dispatcher.BroadcastViews(s.room)
	return player, nil
}

// AttachSpectator binds a read-only connection. Only legal once the game has
// ended; spectators get public views and public chat.
func (s *RoomSession) AttachSpectator(spectatorID string, conn ClientConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.Phase.IsTerminal() {
		return domain.ErrInvalidPhase
	}

	s.registry.Register(spectatorID, conn)
	s.dispatcher.SendTo(spectatorID, domain.NewPlayerEvent(
		domain.EventViewUpdate, s.room.ID, spectatorID, domain.BuildView(s.room, spectatorID)))
	return nil
}

// Detach drops the given connection and starts the reconnection grace
// window. A stale connection that was already replaced by a reconnect is
// dropped silently without touching the player.
func (s *RoomSession) Detach(playerID string, conn ClientConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.UnregisterIf(playerID, conn) {
		return
	}

	if _, err := s.room.GetPlayer(playerID); err != nil {
		return // spectator, nothing to track
	}
	s.disconnectLocked(playerID)
}

// Close tears the session down: timers cancelled, connections closed
func (s *RoomSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	s.phaseGen++
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
		s.phaseTimer = nil
	}
	for id, timer := range s.graceTimers {
		timer.Stop()
		delete(s.graceTimers, id)
	}
	s.registry.CloseAll()
}

// --- internals (caller holds s.mu) ---

func (s *RoomSession) touch() {
	s.lastActive = time.Now()
}

func (s *RoomSession) disconnectLocked(playerID string) {
	player, err := s.room.GetPlayer(playerID)
	if err != nil || !player.IsConnected() {
		return
	}

	player.Disconnect()
	s.logger.Info("player disconnected", "playerId", playerID)
	s.dispatcher.Broadcast(domain.NewEvent(domain.EventPlayerLeft, s.room.ID, player.ToInfo(false)))
	s.dispatcher.BroadcastViews(s.room)

	s.cancelGraceLocked(playerID)
	s.graceTimers[playerID] = time.AfterFunc(s.room.Settings.ReconnectGrace, func() {
		s.onGraceExpired(playerID)
	})
}

func (s *RoomSession) cancelGraceLocked(playerID string) {
	if timer, ok := s.graceTimers[playerID]; ok {
		timer.Stop()
		delete(s.graceTimers, playerID)
	}
}

func (s *RoomSession) onGraceExpired(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	delete(s.graceTimers, playerID)

	player, err := s.room.GetPlayer(playerID)
	if err != nil || player.Status != domain.StatusDisconnected {
		return
	}

	player.Forfeit()
	s.logger.Info("reconnect grace expired", "playerId", playerID)
	s.dispatcher.BroadcastViews(s.room)
	s.maybeAdvanceLocked()
}

// maybeAdvanceLocked ends the current phase early once its quorum is met
func (s *RoomSession) maybeAdvanceLocked() {
	switch s.room.Phase {
	case domain.PhaseNight:
		if s.room.AllNightActionsIn() {
			s.endNightLocked()
		}
	case domain.PhaseDayDiscussion:
		if s.room.ReadyQuorum() {
			s.beginVoteLocked()
		}
	case domain.PhaseDayVote:
		if s.room.AllVotesIn() {
			s.endVoteLocked()
		}
	}
}

func (s *RoomSession) onPhaseDeadline(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.phaseGen {
		return
	}

	switch s.room.Phase {
	case domain.PhaseNight:
		s.endNightLocked()
	case domain.PhaseDayDiscussion:
		s.beginVoteLocked()
	case domain.PhaseDayVote:
		s.endVoteLocked()
	case domain.PhaseResolution:
		s.resolveLocked()
	}
}

func (s *RoomSession) endNightLocked() {
	if err := s.room.EndNight(); err != nil {
		s.logger.Error("failed to end night", "error", err)
		return
	}
	s.schedulePhaseLocked(s.room.Settings.DiscussionDuration)
	s.announcePhaseLocked()
}

func (s *RoomSession) beginVoteLocked() {
	if err := s.room.BeginVote(); err != nil {
		s.logger.Error("failed to open vote", "error", err)
		return
	}
	s.schedulePhaseLocked(s.room.Settings.VoteDuration)
	s.announcePhaseLocked()
}

func (s *RoomSession) endVoteLocked() {
	if err := s.room.EndVote(); err != nil {
		s.logger.Error("failed to close vote", "error", err)
		return
	}
	if s.room.Settings.ResolutionPause <= 0 {
		// nothing else would ever fire the resolution deadline
		s.announcePhaseLocked()
		s.resolveLocked()
		return
	}
	s.schedulePhaseLocked(s.room.Settings.ResolutionPause)
	s.announcePhaseLocked()
}

func (s *RoomSession) resolveLocked() {
	report, err := s.room.Resolve()
	if err != nil {
		s.logger.Error("failed to resolve", "error", err)
		return
	}

	if report.Ended {
		s.phaseGen++ // no further deadlines
		if s.phaseTimer != nil {
			s.phaseTimer.Stop()
			s.phaseTimer = nil
		}

		roster := make([]domain.PlayerInfo, 0, len(s.room.Players))
		for _, p := range s.room.PlayerOrder() {
			roster = append(roster, p.ToInfo(true))
		}
		s.logger.Info("game ended", "winner", report.Winner, "day", report.Day)
		s.dispatcher.Broadcast(domain.NewEvent(domain.EventGameEnded, s.room.ID, &domain.GameEndedPayload{
			Winner: report.Winner,
			Roster: roster,
		}))
		s.dispatcher.BroadcastViews(s.room)
		return
	}

	s.schedulePhaseLocked(s.room.Settings.NightDuration)
	s.announcePhaseLocked()
}

// schedulePhaseLocked arms the deadline for the phase just entered. Bumping
// the generation first invalidates any timer armed for an earlier phase.
func (s *RoomSession) schedulePhaseLocked(d time.Duration) {
	s.phaseGen++
	gen := s.phaseGen

	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
	}
	if d <= 0 {
		s.phaseTimer = nil
		return
	}
	s.phaseTimer = time.AfterFunc(d, func() {
		s.onPhaseDeadline(gen)
	})
}

func (s *RoomSession) announcePhaseLocked() {
	s.dispatcher.Broadcast(domain.NewEvent(domain.EventPhaseChanged, s.room.ID, &domain.PhaseChangedPayload{
		Phase:           s.room.Phase,
		Day:             s.room.Day,
		DeadlineSeconds: int(s.phaseDurationLocked().Seconds()),
	}))
	s.dispatcher.BroadcastViews(s.room)
}

func (s *RoomSession) phaseDurationLocked() time.Duration {
	switch s.room.Phase {
	case domain.PhaseNight:
		return s.room.Settings.NightDuration
	case domain.PhaseDayDiscussion:
		return s.room.Settings.DiscussionDuration
	case domain.PhaseDayVote:
		return s.room.Settings.VoteDuration
	case domain.PhaseResolution:
		return s.room.Settings.ResolutionPause
	default:
		return 0
	}
}
