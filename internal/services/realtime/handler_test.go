package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
	redrepo "github.com/LURY-TMP/matzon-platform/internal/repo/redis"
	authsvc "github.com/LURY-TMP/matzon-platform/internal/services/auth"
	"github.com/LURY-TMP/matzon-platform/internal/services/realtime"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type testServer struct {
	url      string
	hub      *realtime.Hub
	presence *redrepo.PresenceRepo
	jwt      *authsvc.JWTManager
	store    *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	jwtManager := authsvc.NewJWTManager("test-secret", time.Minute)
	presence := redrepo.NewPresenceRepo(client)
	hub := realtime.NewHub(realtime.Config{}, nil)
	handler := realtime.NewHandler(hub, authsvc.NewService(jwtManager, store), presence, store, nil)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		hub:      hub,
		presence: presence,
		jwt:      jwtManager,
		store:    store,
	}
}

func (s *testServer) dial(t *testing.T, username string) (*websocket.Conn, model.User) {
	t.Helper()

	user := s.store.PutUser(model.User{Username: username})
	token, _, err := s.jwt.GenerateAccessToken(user.ID, enums.RoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(s.url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, user
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func expectEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()

	f := readFrame(t, conn)
	if f.Event != event {
		t.Fatalf("unexpected event: got %q want %q", f.Event, event)
	}
	return f
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	if err := conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestHandshakeSendsConnectedAndTracksPresence(t *testing.T) {
	srv := newTestServer(t)
	conn, user := srv.dial(t, "alice")

	connected := expectEvent(t, conn, realtime.EventConnected)
	var payload struct {
		UserID      string `json:"userId"`
		Username    string `json:"username"`
		OnlineCount int64  `json:"onlineCount"`
	}
	if err := json.Unmarshal(connected.Data, &payload); err != nil {
		t.Fatalf("decode connected payload: %v", err)
	}
	if payload.UserID != user.ID || payload.Username != "alice" || payload.OnlineCount != 1 {
		t.Fatalf("unexpected connected payload: %+v", payload)
	}
	expectEvent(t, conn, realtime.EventUserOnline)

	online, err := srv.presence.IsOnline(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("is online: %v", err)
	}
	if !online {
		t.Fatalf("expected user to be tracked online")
	}

	send(t, conn, "ping", nil)
	expectEvent(t, conn, realtime.EventPong)
}

func TestRejectsMissingOrInvalidToken(t *testing.T) {
	srv := newTestServer(t)

	for _, suffix := range []string{"", "?token=bogus"} {
		_, resp, err := websocket.DefaultDialer.Dial(srv.url+suffix, nil)
		if err == nil {
			t.Fatalf("dial %q should fail", suffix)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unexpected response for %q: %+v", suffix, resp)
		}
	}
}

func TestRoomsAndUserDelivery(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceUser := srv.dial(t, "alice")
	expectEvent(t, alice, realtime.EventConnected)
	expectEvent(t, alice, realtime.EventUserOnline)

	send(t, alice, "join:match", map[string]any{"matchId": "m1"})
	send(t, alice, "join:tournament", map[string]any{"tournamentId": "t1"})
	send(t, alice, "ping", nil)
	expectEvent(t, alice, realtime.EventPong)

	srv.hub.EmitToRoom(realtime.MatchRoom("m1"), "match:update", map[string]any{"score": 1})
	expectEvent(t, alice, "match:update")

	srv.hub.EmitToUser(aliceUser.ID, "reputation:updated", map[string]any{"newScore": 2})
	expectEvent(t, alice, "reputation:updated")

	bob, _ := srv.dial(t, "bob")
	expectEvent(t, bob, realtime.EventConnected)
	expectEvent(t, bob, realtime.EventUserOnline)
	expectEvent(t, alice, realtime.EventUserOnline)

	send(t, bob, "join:tournament", map[string]any{"tournamentId": "t1"})
	joined := expectEvent(t, alice, realtime.EventTournamentUserJoined)
	if !strings.Contains(string(joined.Data), `"username":"bob"`) {
		t.Fatalf("unexpected join payload: %s", joined.Data)
	}

	_ = bob.Close()
	expectEvent(t, alice, realtime.EventUserOffline)
}
