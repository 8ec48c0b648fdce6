package domain

// AbstainTarget is the ballot value for an explicit skip. Players who never
// vote before the phase times out are tallied the same way.
const AbstainTarget = "ABSTAIN"

// VoteOutcome is the tallied result of a day vote
type VoteOutcome struct {
	EliminatedID string         `json:"eliminatedId,omitempty"`
	Tied         bool           `json:"tied"`
	Counts       map[string]int `json:"counts"`
	Abstains     int            `json:"abstains"`
}

// TallyVotes applies plurality over the ballots (voterID -> targetID).
// A tie among the top targets eliminates nobody; abstains never count as a
// target.
func TallyVotes(ballots map[string]string) *VoteOutcome {
	outcome := &VoteOutcome{Counts: make(map[string]int)}

	for _, targetID := range ballots {
		if targetID == AbstainTarget {
			outcome.Abstains++
			continue
		}
		outcome.Counts[targetID]++
	}

	top := 0
	topCount := 0
	leader := ""
	for targetID, n := range outcome.Counts {
		if n > top {
			top = n
			topCount = 1
			leader = targetID
		} else if n == top {
			topCount++
		}
	}

	if top == 0 {
		return outcome
	}
	if topCount > 1 {
		outcome.Tied = true
		return outcome
	}

	outcome.EliminatedID = leader
	return outcome
}
