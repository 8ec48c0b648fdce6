package domain

// VoteProgress shows how many ballots are in without revealing who voted
type VoteProgress struct {
	BallotCount int `json:"ballotCount"`
	Eligible    int `json:"eligible"`
}

// PrivateView carries the fields only the viewing player may see
type PrivateView struct {
	PlayerID       string          `json:"playerId"`
	Role           *Role           `json:"role,omitempty"`
	Teammates      []PlayerInfo    `json:"teammates,omitempty"`
	NightAction    *NightAction    `json:"nightAction,omitempty"`
	Ballot         string          `json:"ballot,omitempty"`
	Investigations []Investigation `json:"investigations,omitempty"`
}

// RoomView is the player-specific serialization of a room. Public fields are
// identical across all viewers; private fields belong to the viewer alone.
// Another player's hidden role must never appear here before it is revealed.
type RoomView struct {
	RoomID     string         `json:"roomId"`
	Visibility Visibility     `json:"visibility"`
	Phase      Phase          `json:"phase"`
	Day        int            `json:"day"`
	Players    []PlayerInfo   `json:"players"`
	Vote       *VoteProgress  `json:"vote,omitempty"`
	History    []HistoryEntry `json:"history"`
	Winner     Faction        `json:"winner,omitempty"`
	CanStart   bool           `json:"canStart"`
	You        *PrivateView   `json:"you,omitempty"`
}

// BuildView serializes a room for one viewer. A viewerID not in the room
// (a spectator) gets the public fields only; eliminated players' roles and
// the full roster after the game ends are public by reveal.
func BuildView(r *Room, viewerID string) *RoomView {
	ended := r.Phase == PhaseEnded

	players := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.PlayerOrder() {
		players = append(players, p.ToInfo(ended || !p.Alive))
	}

	view := &RoomView{
		RoomID:     r.ID,
		Visibility: r.Visibility,
		Phase:      r.Phase,
		Day:        r.Day,
		Players:    players,
		History:    r.History,
		Winner:     r.Winner,
		CanStart:   r.CanStart(),
	}

	if r.Phase == PhaseDayVote {
		eligible := 0
		for _, p := range r.Players {
			if p.Participates() {
				eligible++
			}
		}
		view.Vote = &VoteProgress{BallotCount: len(r.Ballots), Eligible: eligible}
	}

	viewer, ok := r.Players[viewerID]
	if !ok {
		return view
	}

	private := &PrivateView{
		PlayerID:       viewerID,
		Role:           viewer.Role,
		Teammates:      r.ShadowTeammates(viewerID),
		Investigations: r.Investigations[viewerID],
	}
	if action, ok := r.NightActions[viewerID]; ok {
		private.NightAction = action
	}
	if ballot, ok := r.Ballots[viewerID]; ok {
		private.Ballot = ballot
	}
	view.You = private

	return view
}

// RoomSummary is the listing entry for a public room
type RoomSummary struct {
	RoomID      string     `json:"roomId"`
	Visibility  Visibility `json:"visibility"`
	Phase       Phase      `json:"phase"`
	Day         int        `json:"day"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	CanJoin     bool       `json:"canJoin"`
}

// Summary produces the public listing entry for a room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		RoomID:      r.ID,
		Visibility:  r.Visibility,
		Phase:       r.Phase,
		Day:         r.Day,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.Settings.MaxPlayers,
		CanJoin:     r.Phase == PhaseLobby && len(r.Players) < r.Settings.MaxPlayers,
	}
}
