package domain

// Phase represents the current stage of a room's game state machine
type Phase string

const (
	PhaseLobby         Phase = "LOBBY"          // Waiting for players to join
	PhaseNight         Phase = "NIGHT"          // Capable players submit night actions
	PhaseDayDiscussion Phase = "DAY_DISCUSSION" // Open discussion, chat only
	PhaseDayVote       Phase = "DAY_VOTE"       // Everyone casts one ballot
	PhaseResolution    Phase = "RESOLUTION"     // Night + vote outcomes applied
	PhaseEnded         Phase = "ENDED"          // Terminal; spectators only
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from the current phase to the target is legal
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:         {PhaseNight},
		PhaseNight:         {PhaseDayDiscussion},
		PhaseDayDiscussion: {PhaseDayVote},
		PhaseDayVote:       {PhaseResolution},
		PhaseResolution:    {PhaseNight, PhaseEnded},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once no further transitions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseEnded
}
