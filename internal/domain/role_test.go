package domain

import "testing"

func TestRolesForPlayerCountFactionRatios(t *testing.T) {
	wantShadows := map[int]int{4: 1, 5: 2, 6: 2, 7: 2, 8: 3, 9: 3, 10: 3}

	for count, want := range wantShadows {
		roles := RolesForPlayerCount(count)
		if len(roles) != count {
			t.Fatalf("%d players: got %d roles", count, len(roles))
		}

		shadows := 0
		for _, r := range roles {
			if r.Faction == FactionShadow {
				shadows++
			}
		}
		if shadows != want {
			t.Errorf("%d players: want %d shadows, got %d", count, want, shadows)
		}
	}
}

func TestRolesForPlayerCountSpecials(t *testing.T) {
	roles := RolesForPlayerCount(5)

	var doctors, detectives int
	for _, r := range roles {
		switch r {
		case RoleDoctor:
			doctors++
		case RoleDetective:
			detectives++
		}
	}
	if doctors != 1 || detectives != 1 {
		t.Fatalf("want exactly one Doctor and one Detective, got %d/%d", doctors, detectives)
	}

	// Shade fills the third shadow slot
	roles = RolesForPlayerCount(8)
	var shades int
	for _, r := range roles {
		if r == RoleShade {
			shades++
		}
	}
	if shades != 1 {
		t.Fatalf("8 players: want one Shade, got %d", shades)
	}
}

func TestFactionWins(t *testing.T) {
	tests := []struct {
		faction Faction
		town    int
		shadow  int
		want    bool
	}{
		{FactionTown, 3, 0, true},
		{FactionTown, 3, 1, false},
		{FactionTown, 0, 0, false},
		{FactionShadow, 2, 2, true},
		{FactionShadow, 1, 2, true},
		{FactionShadow, 3, 2, false},
		{FactionShadow, 3, 0, false},
	}

	for _, tt := range tests {
		if got := FactionWins(tt.faction, tt.town, tt.shadow); got != tt.want {
			t.Errorf("FactionWins(%s, town=%d, shadow=%d): want %v got %v",
				tt.faction, tt.town, tt.shadow, tt.want, got)
		}
	}
}
