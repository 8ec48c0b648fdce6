package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"townofshadows/internal/app"
	"townofshadows/internal/config"
	"townofshadows/internal/domain"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Load()
	settings := domain.DefaultRoomSettings()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := app.NewRoomHub(5, settings, logger)
	t.Cleanup(hub.Close)

	return NewServer(cfg, hub, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, *Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return rec, &resp
}

func TestCreateAndListRooms(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "POST", "/rooms", CreateRoomRequest{Visibility: "public"})
	if rec.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("create: status %d, %+v", rec.Code, resp)
	}

	doJSON(t, s, "POST", "/rooms", CreateRoomRequest{Visibility: "private"})

	rec, resp = doJSON(t, s, "GET", "/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	rooms, ok := resp.Data.([]interface{})
	if !ok || len(rooms) != 1 {
		t.Fatalf("want 1 public room, got %v", resp.Data)
	}
}

func TestJoinUnknownRoomIs404(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "POST", "/rooms/NOPE99/join", JoinRoomRequest{Name: "Ana"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "ROOM_NOT_FOUND" {
		t.Fatalf("want ROOM_NOT_FOUND, got %+v", resp.Error)
	}
}

func TestJoinAndStartFlow(t *testing.T) {
	s := newTestServer(t)

	_, resp := doJSON(t, s, "POST", "/rooms", nil)
	data := resp.Data.(map[string]interface{})
	roomID := data["roomId"].(string)

	rec, resp := doJSON(t, s, "POST", "/rooms/"+roomID+"/join", JoinRoomRequest{Name: "Ana"})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("join: status %d, %+v", rec.Code, resp)
	}
	join := resp.Data.(map[string]interface{})
	if join["playerId"] == "" {
		t.Fatal("join must return a player id")
	}

	// Too few players to start
	rec, resp = doJSON(t, s, "POST", "/rooms/"+roomID+"/start", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_ENOUGH_PLAYERS" {
		t.Fatalf("want NOT_ENOUGH_PLAYERS, got %+v", resp.Error)
	}

	for _, name := range []string{"Ben", "Cleo", "Dan"} {
		doJSON(t, s, "POST", "/rooms/"+roomID+"/join", JoinRoomRequest{Name: name})
	}

	rec, _ = doJSON(t, s, "POST", "/rooms/"+roomID+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	// The game has started, late joins are rejected with a phase error
	rec, resp = doJSON(t, s, "POST", "/rooms/"+roomID+"/join", JoinRoomRequest{Name: "Eve"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("late join: want 409, got %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "INVALID_PHASE" {
		t.Fatalf("want INVALID_PHASE, got %+v", resp.Error)
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	s := newTestServer(t)

	_, resp := doJSON(t, s, "POST", "/rooms", nil)
	roomID := resp.Data.(map[string]interface{})["roomId"].(string)

	doJSON(t, s, "POST", "/rooms/"+roomID+"/join", JoinRoomRequest{Name: "Ana"})
	rec, resp := doJSON(t, s, "POST", "/rooms/"+roomID+"/join", JoinRoomRequest{Name: "Ana"})
	if rec.Code != http.StatusConflict || resp.Error == nil || resp.Error.Code != "NAME_TAKEN" {
		t.Fatalf("want NAME_TAKEN conflict, got %d %+v", rec.Code, resp.Error)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("healthz: %d %+v", rec.Code, resp)
	}
}
