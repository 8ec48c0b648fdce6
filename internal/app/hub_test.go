package app

import (
	"testing"
	"time"

	"townofshadows/internal/domain"
)

func TestCreateRoomCapacityCeiling(t *testing.T) {
	hub := NewRoomHub(2, fastSettings(), discardLogger())
	t.Cleanup(hub.Close)

	if _, err := hub.CreateRoom(domain.VisibilityPublic); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, err := hub.CreateRoom(domain.VisibilityPublic); err != nil {
		t.Fatalf("create 2: %v", err)
	}
	if _, err := hub.CreateRoom(domain.VisibilityPublic); err != domain.ErrCapacity {
		t.Fatalf("want ErrCapacity, got %v", err)
	}
}

func TestListPublicRoomsFiltersPrivate(t *testing.T) {
	hub := NewRoomHub(10, fastSettings(), discardLogger())
	t.Cleanup(hub.Close)

	public, _ := hub.CreateRoom(domain.VisibilityPublic)
	hub.CreateRoom(domain.VisibilityPrivate)

	rooms := hub.ListPublicRooms()
	if len(rooms) != 1 {
		t.Fatalf("want 1 public room, got %d", len(rooms))
	}
	if rooms[0].RoomID != public.RoomID() {
		t.Fatalf("wrong room listed: %s", rooms[0].RoomID)
	}
	if !rooms[0].CanJoin {
		t.Fatal("empty lobby must be joinable")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	hub := NewRoomHub(10, fastSettings(), discardLogger())
	t.Cleanup(hub.Close)

	if _, err := hub.GetSession("NOPE99"); err != domain.ErrRoomNotFound {
		t.Fatalf("want ErrRoomNotFound, got %v", err)
	}
}

func TestDeleteRoomRemovesIt(t *testing.T) {
	hub := NewRoomHub(10, fastSettings(), discardLogger())
	t.Cleanup(hub.Close)

	session, _ := hub.CreateRoom(domain.VisibilityPublic)
	hub.DeleteRoom(session.RoomID())

	if _, err := hub.GetSession(session.RoomID()); err != domain.ErrRoomNotFound {
		t.Fatalf("deleted room still resolvable: %v", err)
	}
	if hub.RoomCount() != 0 {
		t.Fatalf("want 0 rooms, got %d", hub.RoomCount())
	}
}

func TestSessionExpiry(t *testing.T) {
	room := domain.NewRoom("ROOM09", domain.VisibilityPublic, fastSettings())
	s := NewRoomSession(room, discardLogger())
	t.Cleanup(s.Close)

	now := time.Now()
	if s.IsExpired(now, IdleRoomTimeout) {
		t.Fatal("fresh empty room must not expire immediately")
	}
	if !s.IsExpired(now.Add(IdleRoomTimeout+time.Minute), IdleRoomTimeout) {
		t.Fatal("stale empty room must expire")
	}

	s.Join("p1", "Ana")
	if s.IsExpired(now.Add(24*time.Hour), IdleRoomTimeout) {
		t.Fatal("a room with seated players in a live game must not expire")
	}
}
