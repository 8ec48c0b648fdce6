package domain

// Faction is the winning-side grouping a role belongs to
type Faction string

const (
	FactionTown   Faction = "TOWN"
	FactionShadow Faction = "SHADOW"
)

// Ability is the kind of night action a role can perform
type Ability string

const (
	AbilityNone        Ability = "NONE"
	AbilityInvestigate Ability = "INVESTIGATE"
	AbilityEliminate   Ability = "ELIMINATE"
	AbilityProtect     Ability = "PROTECT"
)

// Priority orders night-action resolution: lower resolves first.
// Protection must land before eliminations, investigations observe the rest.
func (a Ability) Priority() int {
	switch a {
	case AbilityProtect:
		return 0
	case AbilityEliminate:
		return 1
	case AbilityInvestigate:
		return 2
	default:
		return 3
	}
}

// Role is an immutable catalog entry. Players hold a reference, never a copy.
type Role struct {
	Name    string  `json:"name"`
	Faction Faction `json:"faction"`
	Ability Ability `json:"ability"`
}

// HasNightAbility returns true if the role acts at night
func (r *Role) HasNightAbility() bool {
	return r.Ability != AbilityNone
}

// The role catalog
var (
	RoleVillager  = &Role{Name: "Villager", Faction: FactionTown, Ability: AbilityNone}
	RoleDoctor    = &Role{Name: "Doctor", Faction: FactionTown, Ability: AbilityProtect}
	RoleDetective = &Role{Name: "Detective", Faction: FactionTown, Ability: AbilityInvestigate}
	RoleShadow    = &Role{Name: "Shadow", Faction: FactionShadow, Ability: AbilityEliminate}
	RoleShade     = &Role{Name: "Shade", Faction: FactionShadow, Ability: AbilityInvestigate}
)

// Catalog lists every role available for assignment
var Catalog = []*Role{RoleVillager, RoleDoctor, RoleDetective, RoleShadow, RoleShade}

// shadowCountFor is the fixed faction-ratio table by player count.
// Counts outside the table fall back to roughly one shadow per three players.
func shadowCountFor(playerCount int) int {
	table := map[int]int{
		4:  1,
		5:  2,
		6:  2,
		7:  2,
		8:  3,
		9:  3,
		10: 3,
	}
	if n, ok := table[playerCount]; ok {
		return n
	}
	n := playerCount / 3
	if n < 1 {
		n = 1
	}
	return n
}

// RolesForPlayerCount builds the role multiset for a game of the given size.
// Shadow slots are filled with one Shade once there are at least three of
// them; Town slots get one Doctor and one Detective before Villagers.
func RolesForPlayerCount(playerCount int) []*Role {
	shadows := shadowCountFor(playerCount)
	town := playerCount - shadows

	roles := make([]*Role, 0, playerCount)

	for i := 0; i < shadows; i++ {
		if i == 2 {
			roles = append(roles, RoleShade)
			continue
		}
		roles = append(roles, RoleShadow)
	}

	for i := 0; i < town; i++ {
		switch i {
		case 0:
			roles = append(roles, RoleDoctor)
		case 1:
			roles = append(roles, RoleDetective)
		default:
			roles = append(roles, RoleVillager)
		}
	}

	return roles
}

// FactionWins evaluates a faction's win predicate over the alive composition.
// Town wins when every shadow is gone; Shadow wins once it reaches parity.
func FactionWins(f Faction, aliveTown, aliveShadow int) bool {
	switch f {
	case FactionTown:
		return aliveShadow == 0 && aliveTown > 0
	case FactionShadow:
		return aliveShadow > 0 && aliveShadow >= aliveTown
	default:
		return false
	}
}
