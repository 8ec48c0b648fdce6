package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"townofshadows/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastSettings() domain.RoomSettings {
	return domain.RoomSettings{
		MinPlayers:         4,
		MaxPlayers:         6,
		NightDuration:      time.Hour,
		DiscussionDuration: time.Hour,
		VoteDuration:       time.Hour,
		ResolutionPause:    0, // resolve inline
		ReconnectGrace:     time.Hour,
	}
}

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []interface{}
	fail bool
}

func (f *fakeConn) Send(m interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("connection gone")
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeConn) GetPlayerID() string { return f.id }

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) eventsOfType(t domain.EventType) []*domain.GameEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.GameEvent
	for _, m := range f.msgs {
		if ev, ok := m.(*domain.GameEvent); ok && ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// newStartedSession builds a 5-player session in the first night with fixed
// roles: p1, p2 Shadow; p3 Doctor; p4 Detective; p5 Villager.
func newStartedSession(t *testing.T, settings domain.RoomSettings) *RoomSession {
	t.Helper()

	room := domain.NewRoom("ROOM01", domain.VisibilityPublic, settings)
	s := NewRoomSession(room, discardLogger())
	t.Cleanup(s.Close)

	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("p%d", i)
		if _, err := s.Join(id, "Player"+id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	room.Players["p1"].Role = domain.RoleShadow
	room.Players["p2"].Role = domain.RoleShadow
	room.Players["p3"].Role = domain.RoleDoctor
	room.Players["p4"].Role = domain.RoleDetective
	room.Players["p5"].Role = domain.RoleVillager
	return s
}

func waitForPhase(t *testing.T, s *RoomSession, want domain.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Phase() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("phase never reached %s, stuck at %s", want, s.Phase())
}

func TestNightTimeoutDefaultsToNoAction(t *testing.T) {
	settings := fastSettings()
	settings.NightDuration = 50 * time.Millisecond

	s := newStartedSession(t, settings)

	// Nobody submits anything; the deadline must still advance the phase.
	waitForPhase(t, s, domain.PhaseDayDiscussion)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.PendingNight == nil {
		t.Fatal("night outcome must be computed")
	}
	if len(s.room.PendingNight.Deaths) != 0 {
		t.Fatalf("no submissions means no deaths, got %v", s.room.PendingNight.Deaths)
	}
}

func TestQuorumsAdvancePhasesEarly(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	// Night: doctor protects the shadows' target, so nobody dies.
	mustDo(t, s.SubmitNightAction("p1", "p5"))
	mustDo(t, s.SubmitNightAction("p2", "p5"))
	mustDo(t, s.SubmitNightAction("p3", "p5"))
	if s.Phase() != domain.PhaseNight {
		t.Fatal("detective has not acted, night must not end")
	}
	mustDo(t, s.SubmitNightAction("p4", "p1"))

	if s.Phase() != domain.PhaseDayDiscussion {
		t.Fatalf("all actions in, want DayDiscussion, got %s", s.Phase())
	}

	for i := 1; i <= 5; i++ {
		mustDo(t, s.Ready(fmt.Sprintf("p%d", i)))
	}
	if s.Phase() != domain.PhaseDayVote {
		t.Fatalf("ready quorum, want DayVote, got %s", s.Phase())
	}

	for i := 1; i <= 5; i++ {
		mustDo(t, s.CastVote(fmt.Sprintf("p%d", i), domain.AbstainTarget))
	}

	// Zero resolution pause resolves inline: nobody died, next night opens.
	if s.Phase() != domain.PhaseNight {
		t.Fatalf("want night of day 2, got %s", s.Phase())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.Day != 2 {
		t.Fatalf("want day 2, got %d", s.room.Day)
	}
	for _, p := range s.room.Players {
		if !p.Alive {
			t.Fatalf("%s died on a quiet day", p.ID)
		}
	}
}

func TestEndToEndShadowWin(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	watcher := &fakeConn{id: "p1"}
	if _, err := s.Attach("p1", watcher); err != nil {
		t.Fatalf("attach: %v", err)
	}

	playCycle := func(shadowTarget, doctorTarget string) {
		t.Helper()
		mustDo(t, s.SubmitNightAction("p1", shadowTarget))
		mustDo(t, s.SubmitNightAction("p2", shadowTarget))
		mustDo(t, s.SubmitNightAction("p3", doctorTarget))
		mustDo(t, s.SubmitNightAction("p4", "p1"))

		for i := 1; i <= 5; i++ {
			id := fmt.Sprintf("p%d", i)
			s.Ready(id) // dead players are rejected, that's fine
		}
		for i := 1; i <= 5; i++ {
			id := fmt.Sprintf("p%d", i)
			s.CastVote(id, domain.AbstainTarget)
		}
	}

	// Night 1: the doctor guesses right, p5 survives.
	playCycle("p5", "p5")
	if s.Phase() != domain.PhaseNight {
		t.Fatalf("want night of day 2, got %s", s.Phase())
	}

	// Night 2: the doctor guesses wrong, p5 dies, shadows reach parity.
	playCycle("p5", "p3")

	if s.Phase() != domain.PhaseEnded {
		t.Fatalf("want Ended, got %s", s.Phase())
	}

	s.mu.Lock()
	winner := s.room.Winner
	alive := 0
	for _, p := range s.room.Players {
		if p.Alive {
			alive++
		}
	}
	s.mu.Unlock()

	if winner != domain.FactionShadow {
		t.Fatalf("want shadow win, got %s", winner)
	}
	if alive != 4 {
		t.Fatalf("only p5 should have died, %d alive", alive)
	}

	ended := watcher.eventsOfType(domain.EventGameEnded)
	if len(ended) != 1 {
		t.Fatalf("want one game-ended event, got %d", len(ended))
	}
}

func TestDayVoteTieEliminatesNobody(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	// Skip the night quietly: the doctor blocks the shadows' kill
	mustDo(t, s.SubmitNightAction("p1", "p3"))
	mustDo(t, s.SubmitNightAction("p2", "p3"))
	mustDo(t, s.SubmitNightAction("p3", "p3"))
	mustDo(t, s.SubmitNightAction("p4", "p1"))
	for i := 1; i <= 5; i++ {
		mustDo(t, s.Ready(fmt.Sprintf("p%d", i)))
	}

	// 2 votes each on p1 and p2, one abstain: tied, nobody eliminated
	mustDo(t, s.CastVote("p1", "p2"))
	mustDo(t, s.CastVote("p2", "p1"))
	mustDo(t, s.CastVote("p3", "p1"))
	mustDo(t, s.CastVote("p4", "p2"))
	mustDo(t, s.CastVote("p5", domain.AbstainTarget))

	if s.Phase() != domain.PhaseNight {
		t.Fatalf("want night of day 2, got %s", s.Phase())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.room.Players {
		if !p.Alive {
			t.Fatalf("tie must eliminate nobody, %s died", p.ID)
		}
	}
}

func TestDisconnectReconnectWithinGracePreservesSeat(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	conn := &fakeConn{id: "p4"}
	if _, err := s.Attach("p4", conn); err != nil {
		t.Fatalf("attach: %v", err)
	}

	s.Detach("p4", conn)

	s.mu.Lock()
	status := s.room.Players["p4"].Status
	roleBefore := s.room.Players["p4"].Role
	s.mu.Unlock()

	if status != domain.StatusDisconnected {
		t.Fatalf("want Disconnected, got %s", status)
	}

	player, err := s.Attach("p4", &fakeConn{id: "p4"})
	if err != nil {
		t.Fatalf("reattach: %v", err)
	}
	if player.Status != domain.StatusConnected {
		t.Fatalf("want Connected after reattach, got %s", player.Status)
	}
	if player.Role != roleBefore {
		t.Fatal("role must survive a reconnect")
	}
	if !player.Alive {
		t.Fatal("alive state must survive a reconnect")
	}
}

func TestGraceExpiryForfeitsAndUnblocksPhase(t *testing.T) {
	settings := fastSettings()
	settings.ReconnectGrace = 30 * time.Millisecond

	s := newStartedSession(t, settings)

	conn := &fakeConn{id: "p4"}
	if _, err := s.Attach("p4", conn); err != nil {
		t.Fatalf("attach: %v", err)
	}
	s.Detach("p4", conn) // detective walks away

	mustDo(t, s.SubmitNightAction("p1", "p1"))
	mustDo(t, s.SubmitNightAction("p2", "p2"))
	mustDo(t, s.SubmitNightAction("p3", "p3"))

	if s.Phase() != domain.PhaseNight {
		t.Fatal("night must wait while the grace period runs")
	}

	// Once the grace expires, p4 forfeits and stops blocking the quorum.
	waitForPhase(t, s, domain.PhaseDayDiscussion)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.Players["p4"].Status != domain.StatusForfeited {
		t.Fatalf("want Forfeited, got %s", s.room.Players["p4"].Status)
	}
	if s.room.Players["p4"].Role == nil {
		t.Fatal("forfeiting must not strip the role")
	}
}

func TestLeaveInLobbyRemovesSeat(t *testing.T) {
	room := domain.NewRoom("ROOM02", domain.VisibilityPublic, fastSettings())
	s := NewRoomSession(room, discardLogger())
	t.Cleanup(s.Close)

	s.Join("p1", "Ana")
	s.Join("p2", "Ben")

	if err := s.Leave("p1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.PlayerCount() != 1 {
		t.Fatalf("want 1 player, got %d", s.PlayerCount())
	}
}

func TestLeaveAfterStartKeepsSeat(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	if err := s.Leave("p1"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if s.PlayerCount() != 5 {
		t.Fatalf("in-game leave must not delete the seat, got %d players", s.PlayerCount())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room.Players["p1"].Status != domain.StatusDisconnected {
		t.Fatalf("want Disconnected, got %s", s.room.Players["p1"].Status)
	}
	if s.room.Players["p1"].Role == nil {
		t.Fatal("role must persist for reconnection")
	}
}

func TestChatChannels(t *testing.T) {
	s := newStartedSession(t, fastSettings())

	shadow := &fakeConn{id: "p2"}
	town := &fakeConn{id: "p3"}
	s.Attach("p2", shadow)
	s.Attach("p3", town)

	if err := s.Chat("p3", domain.ChannelShadow, "let me in"); err == nil {
		t.Fatal("town player must not use the shadow channel")
	}
	if err := s.Chat("p1", domain.ChannelShadow, "target p5 tonight"); err != nil {
		t.Fatalf("shadow chat: %v", err)
	}
	if err := s.Chat("p3", domain.ChannelPublic, "good morning"); err != nil {
		t.Fatalf("public chat: %v", err)
	}

	if got := len(shadow.eventsOfType(domain.EventChat)); got != 2 {
		t.Fatalf("shadow conn: want shadow+public chat, got %d", got)
	}
	if got := len(town.eventsOfType(domain.EventChat)); got != 1 {
		t.Fatalf("town conn: want public chat only, got %d", got)
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
