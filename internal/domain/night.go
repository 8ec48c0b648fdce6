package domain

import (
	"sort"
	"time"
)

// NightAction is one player's hidden submission for the current night.
// Resubmitting overwrites the previous submission.
type NightAction struct {
	ActorID     string    `json:"actorId"`
	TargetID    string    `json:"targetId"`
	Ability     Ability   `json:"ability"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Investigation is a private result delivered to the investigating player
type Investigation struct {
	ActorID  string  `json:"actorId"`
	TargetID string  `json:"targetId"`
	Faction  Faction `json:"faction"`
}

// NightOutcome is the computed result of a night. It is held pending and
// applied to the room during Resolution, together with the day-vote outcome.
type NightOutcome struct {
	Deaths         []string        `json:"deaths"`
	Saved          []string        `json:"saved"`
	Investigations []Investigation `json:"-"`
}

// ResolveNight resolves the submitted actions against the given players.
// Ordering is fixed: protect before eliminate before investigate, and within
// a priority class actors resolve in join order, so the same inputs always
// produce the same outcome.
func ResolveNight(actions map[string]*NightAction, players map[string]*Player) *NightOutcome {
	ordered := make([]*NightAction, 0, len(actions))
	for _, a := range actions {
		ordered = append(ordered, a)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Ability.Priority(), ordered[j].Ability.Priority()
		if pi != pj {
			return pi < pj
		}
		return players[ordered[i].ActorID].JoinIndex < players[ordered[j].ActorID].JoinIndex
	})

	outcome := &NightOutcome{}
	protected := make(map[string]bool)
	dead := make(map[string]bool)

	for _, action := range ordered {
		target, ok := players[action.TargetID]
		if !ok || !target.Alive {
			continue
		}

		switch action.Ability {
		case AbilityProtect:
			protected[action.TargetID] = true
		case AbilityEliminate:
			if protected[action.TargetID] {
				outcome.Saved = append(outcome.Saved, action.TargetID)
				continue
			}
			if !dead[action.TargetID] {
				dead[action.TargetID] = true
				outcome.Deaths = append(outcome.Deaths, action.TargetID)
			}
		case AbilityInvestigate:
			outcome.Investigations = append(outcome.Investigations, Investigation{
				ActorID:  action.ActorID,
				TargetID: action.TargetID,
				Faction:  target.Role.Faction,
			})
		}
	}

	return outcome
}
