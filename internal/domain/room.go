package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// Visibility controls whether a room shows up in the public listing
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// RoomSettings holds configurable game parameters
type RoomSettings struct {
	MinPlayers         int           `json:"minPlayers"`
	MaxPlayers         int           `json:"maxPlayers"`
	NightDuration      time.Duration `json:"nightDuration"`
	DiscussionDuration time.Duration `json:"discussionDuration"`
	VoteDuration       time.Duration `json:"voteDuration"`
	ResolutionPause    time.Duration `json:"resolutionPause"`
	ReconnectGrace     time.Duration `json:"reconnectGrace"`
}

// DefaultRoomSettings returns the default room settings
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MinPlayers:         4,
		MaxPlayers:         12,
		NightDuration:      40 * time.Second,
		DiscussionDuration: 60 * time.Second,
		VoteDuration:       20 * time.Second,
		ResolutionPause:    5 * time.Second,
		ReconnectGrace:     120 * time.Second,
	}
}

// HistoryEntry is one line of a room's public game log
type HistoryEntry struct {
	Day   int       `json:"day"`
	Phase Phase     `json:"phase"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Room is the authoritative per-room state. It is not safe for concurrent
// use; the session layer serializes all access.
type Room struct {
	ID           string
	Visibility   Visibility
	Players      map[string]*Player
	Phase        Phase
	Day          int
	NightActions map[string]*NightAction
	Ballots      map[string]string
	PendingNight *NightOutcome
	PendingVote  *VoteOutcome
	History      []HistoryEntry
	Winner       Faction
	Settings     RoomSettings
	CreatedAt    time.Time

	// Investigations accumulates private results per investigator across days
	Investigations map[string][]Investigation

	order []string // player IDs in join order
}

// NewRoom creates a room in the Lobby phase
func NewRoom(id string, visibility Visibility, settings RoomSettings) *Room {
	return &Room{
		ID:           id,
		Visibility:   visibility,
		Players:      make(map[string]*Player),
		Phase:        PhaseLobby,
		NightActions: make(map[string]*NightAction),
		Ballots:      make(map[string]string),
		Settings:     settings,
		CreatedAt:    time.Now(),

		Investigations: make(map[string][]Investigation),
	}
}

// AddPlayer admits a player. Lobby is the only phase admitting new players.
func (r *Room) AddPlayer(playerID, name string) (*Player, error) {
	if r.Phase != PhaseLobby {
		return nil, ErrInvalidPhase
	}
	if len(r.Players) >= r.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}
	for _, p := range r.Players {
		if p.Name == name {
			return nil, ErrNameTaken
		}
	}

	player := NewPlayer(playerID, name, len(r.order))
	r.Players[playerID] = player
	r.order = append(r.order, playerID)

	return player, nil
}

// RemovePlayer deletes a player outright. Only legal in the lobby; once the
// game starts, seats are frozen and departures go through Disconnect.
func (r *Room) RemovePlayer(playerID string) error {
	if r.Phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if _, ok := r.Players[playerID]; !ok {
		return ErrPlayerNotFound
	}

	delete(r.Players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	player, ok := r.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// PlayerOrder returns the players in join order
func (r *Room) PlayerOrder() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.Players[id])
	}
	return players
}

// AliveCounts returns the alive player count per faction
func (r *Room) AliveCounts() (town, shadow int) {
	for _, p := range r.Players {
		if !p.Alive || p.Role == nil {
			continue
		}
		switch p.Role.Faction {
		case FactionTown:
			town++
		case FactionShadow:
			shadow++
		}
	}
	return town, shadow
}

// CanStart checks if the game can be started
func (r *Room) CanStart() bool {
	return r.Phase == PhaseLobby && len(r.Players) >= r.Settings.MinPlayers
}

// Start assigns roles from the catalog composition table and moves to the
// first night. The player count is frozen from here on.
func (r *Room) Start() error {
	if r.Phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if len(r.Players) < r.Settings.MinPlayers {
		return ErrNotEnoughPlayers
	}

	roles := RolesForPlayerCount(len(r.Players))
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, player := range r.PlayerOrder() {
		player.Role = roles[i]
	}

	r.Day = 1
	r.log("The game begins. Night falls.")
	return r.transition(PhaseNight)
}

// SubmitNightAction records an action for the current night. Resubmission
// overwrites the previous submission.
func (r *Room) SubmitNightAction(actorID, targetID string) error {
	if r.Phase != PhaseNight {
		return ErrInvalidPhase
	}

	actor, err := r.GetPlayer(actorID)
	if err != nil {
		return err
	}
	if !actor.Alive {
		return ErrNotAlive
	}
	if actor.Role == nil || !actor.Role.HasNightAbility() {
		return ErrNoNightAbility
	}

	target, err := r.GetPlayer(targetID)
	if err != nil || !target.Alive {
		return ErrInvalidTarget
	}

	r.NightActions[actorID] = &NightAction{
		ActorID:     actorID,
		TargetID:    targetID,
		Ability:     actor.Role.Ability,
		SubmittedAt: time.Now(),
	}
	return nil
}

// AllNightActionsIn reports whether every participating capable player has
// submitted. Forfeited players never block the night.
func (r *Room) AllNightActionsIn() bool {
	for _, p := range r.Players {
		if !p.Participates() || p.Role == nil || !p.Role.HasNightAbility() {
			continue
		}
		if _, ok := r.NightActions[p.ID]; !ok {
			return false
		}
	}
	return true
}

// EndNight resolves the submitted actions, holds the outcome pending for
// Resolution, and opens the day discussion. Players who never submitted are
// treated as having taken no action.
func (r *Room) EndNight() error {
	if r.Phase != PhaseNight {
		return ErrInvalidPhase
	}

	r.PendingNight = ResolveNight(r.NightActions, r.Players)
	r.NightActions = make(map[string]*NightAction)
	r.log("Dawn breaks. The town gathers to talk.")
	return r.transition(PhaseDayDiscussion)
}

// SetReady flags a player as ready to move on from discussion
func (r *Room) SetReady(playerID string) error {
	if r.Phase != PhaseDayDiscussion {
		return ErrInvalidPhase
	}
	player, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if !player.Alive {
		return ErrNotAlive
	}
	player.Ready = true
	return nil
}

// ReadyQuorum reports whether every participating alive player is ready
func (r *Room) ReadyQuorum() bool {
	for _, p := range r.Players {
		if !p.Participates() {
			continue
		}
		if !p.Ready {
			return false
		}
	}
	return true
}

// BeginVote closes discussion and opens the ballot
func (r *Room) BeginVote() error {
	if r.Phase != PhaseDayDiscussion {
		return ErrInvalidPhase
	}
	for _, p := range r.Players {
		p.Ready = false
	}
	r.log("Discussion closes. The vote is open.")
	return r.transition(PhaseDayVote)
}

// CastVote records a ballot for an alive target or an abstain. Recasting
// overwrites the previous ballot.
func (r *Room) CastVote(voterID, targetID string) error {
	if r.Phase != PhaseDayVote {
		return ErrInvalidPhase
	}

	voter, err := r.GetPlayer(voterID)
	if err != nil {
		return err
	}
	if !voter.Alive {
		return ErrNotAlive
	}

	if targetID != AbstainTarget {
		target, err := r.GetPlayer(targetID)
		if err != nil || !target.Alive {
			return ErrInvalidTarget
		}
	}

	r.Ballots[voterID] = targetID
	return nil
}

// AllVotesIn reports whether every participating alive player has a ballot
func (r *Room) AllVotesIn() bool {
	for _, p := range r.Players {
		if !p.Participates() {
			continue
		}
		if _, ok := r.Ballots[p.ID]; !ok {
			return false
		}
	}
	return true
}

// EndVote tallies the ballots (missing ballots count as abstains), holds the
// outcome pending, and enters Resolution.
func (r *Room) EndVote() error {
	if r.Phase != PhaseDayVote {
		return ErrInvalidPhase
	}

	for _, p := range r.Players {
		if p.Alive {
			if _, ok := r.Ballots[p.ID]; !ok {
				r.Ballots[p.ID] = AbstainTarget
			}
		}
	}

	r.PendingVote = TallyVotes(r.Ballots)
	r.Ballots = make(map[string]string)
	return r.transition(PhaseResolution)
}

// ResolutionReport describes everything a resolution changed
type ResolutionReport struct {
	Day            int              `json:"day"`
	NightDeaths    []string         `json:"nightDeaths"`
	Saved          []string         `json:"saved"`
	VoteOutcome    *VoteOutcome     `json:"voteOutcome,omitempty"`
	VoteEliminated string           `json:"voteEliminated,omitempty"`
	Revealed       map[string]*Role `json:"revealed"`
	Investigations []Investigation  `json:"-"`
	Winner         Faction          `json:"winner,omitempty"`
	Ended          bool             `json:"ended"`
}

// Resolve atomically applies the pending night and vote outcomes, evaluates
// the win predicates, and transitions to the next night or to Ended.
func (r *Room) Resolve() (*ResolutionReport, error) {
	if r.Phase != PhaseResolution {
		return nil, ErrInvalidPhase
	}

	report := &ResolutionReport{
		Day:      r.Day,
		Revealed: make(map[string]*Role),
	}

	if r.PendingNight != nil {
		for _, id := range r.PendingNight.Deaths {
			if p, ok := r.Players[id]; ok && p.Alive {
				p.Alive = false
				report.NightDeaths = append(report.NightDeaths, id)
				report.Revealed[id] = p.Role
				r.log(fmt.Sprintf("%s was found dead. They were a %s.", p.Name, p.Role.Name))
			}
		}
		report.Saved = r.PendingNight.Saved
		report.Investigations = r.PendingNight.Investigations
		for _, inv := range r.PendingNight.Investigations {
			r.Investigations[inv.ActorID] = append(r.Investigations[inv.ActorID], inv)
		}
	}

	if r.PendingVote != nil {
		report.VoteOutcome = r.PendingVote
		if id := r.PendingVote.EliminatedID; id != "" {
			if p, ok := r.Players[id]; ok && p.Alive {
				p.Alive = false
				report.VoteEliminated = id
				report.Revealed[id] = p.Role
				r.log(fmt.Sprintf("The town voted out %s. They were a %s.", p.Name, p.Role.Name))
			}
		} else if r.PendingVote.Tied {
			r.log("The vote was tied. Nobody was eliminated.")
		} else {
			r.log("The town could not agree. Nobody was eliminated.")
		}
	}

	r.PendingNight = nil
	r.PendingVote = nil

	town, shadow := r.AliveCounts()
	townWins := FactionWins(FactionTown, town, shadow)
	shadowWins := FactionWins(FactionShadow, town, shadow)

	if townWins != shadowWins {
		if townWins {
			r.Winner = FactionTown
		} else {
			r.Winner = FactionShadow
		}
		report.Winner = r.Winner
		report.Ended = true
		r.log(fmt.Sprintf("The %s faction wins.", r.Winner))
		return report, r.transition(PhaseEnded)
	}

	r.Day++
	r.log("Night falls again.")
	return report, r.transition(PhaseNight)
}

// transition moves to the target phase after validating it against the
// legal-transition table.
func (r *Room) transition(target Phase) error {
	if !r.Phase.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	r.Phase = target
	return nil
}

// ShadowTeammates lists the shadow-faction players visible to one of their own
func (r *Room) ShadowTeammates(playerID string) []PlayerInfo {
	viewer, ok := r.Players[playerID]
	if !ok || viewer.Role == nil || viewer.Role.Faction != FactionShadow {
		return nil
	}

	mates := make([]PlayerInfo, 0)
	for _, p := range r.PlayerOrder() {
		if p.ID == playerID || p.Role == nil || p.Role.Faction != FactionShadow {
			continue
		}
		mates = append(mates, p.ToInfo(true))
	}
	return mates
}

func (r *Room) log(text string) {
	r.History = append(r.History, HistoryEntry{
		Day:   r.Day,
		Phase: r.Phase,
		Text:  text,
		At:    time.Now(),
	})
}
