// Package realtime fans server events out to websocket connections. Every
// socket joins the room of its user; tournament and match rooms are joined
// on request. Delivery is best effort and nothing is kept for offline users.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	EventConnected   = "connected"
	EventUserOnline  = "user:online"
	EventUserOffline = "user:offline"
	EventPong        = "pong"
	EventException   = "exception"

	EventTournamentUserJoined = "tournament:user_joined"
	EventTournamentUserLeft   = "tournament:user_left"
)

type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Config struct {
	SendBuffer     int
	ThrottleLimit  int
	ThrottleWindow time.Duration
	SweepInterval  time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	AllowedOrigins []string
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.ThrottleLimit <= 0 {
		c.ThrottleLimit = 30
	}
	if c.ThrottleWindow <= 0 {
		c.ThrottleWindow = 10 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	return c
}

func UserRoom(userID string) string             { return "user:" + userID }
func TournamentRoom(tournamentID string) string { return "tournament:" + tournamentID }
func MatchRoom(matchID string) string           { return "match:" + matchID }

type Hub struct {
	cfg      Config
	logger   *zap.Logger
	throttle *throttle
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub(cfg Config, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		throttle: newThrottle(cfg.ThrottleLimit, cfg.ThrottleWindow),
		now:      time.Now,
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
	}
}

// Run sweeps idle throttle buckets until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := h.throttle.sweep(); removed > 0 {
				h.logger.Debug("realtime throttle swept", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) EmitToUser(userID, event string, payload any) {
	h.EmitToRoom(UserRoom(userID), event, payload)
}

func (h *Hub) EmitToRoom(room, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, frame)
	}
}

func (h *Hub) EmitGlobal(event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, frame)
	}
}

// emitToRoomExcept skips the sender, as room join announcements do.
func (h *Hub) emitToRoomExcept(room string, except *Client, event string, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, frame)
	}
}

func (h *Hub) sendTo(c *Client, event string, payload any) {
	if frame, ok := h.encode(event, payload); ok {
		h.deliver(c, frame)
	}
}

func (h *Hub) deliver(c *Client, frame []byte) {
	if c.enqueue(frame) {
		messagesEmitted.Inc()
		return
	}
	messagesDropped.Inc()
	h.logger.Debug("realtime frame dropped", zap.String("socket_id", c.id), zap.String("user_id", c.userID))
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Warn("encode realtime frame", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return frame, true
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.joinLocked(c, UserRoom(c.userID))
	h.mu.Unlock()
	connectedSockets.Inc()
}

// unregister removes c from every room and reports how many sockets its
// user still holds on this instance.
func (h *Hub) unregister(c *Client) int {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		for room := range c.rooms {
			h.leaveLocked(c, room)
		}
		connectedSockets.Dec()
	}
	remaining := len(h.rooms[UserRoom(c.userID)])
	h.mu.Unlock()

	c.close()
	h.throttle.forget(c.id)
	return remaining
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	h.joinLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	h.leaveLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize reports the number of sockets in room on this instance.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// OnlineUsers counts distinct users with a socket on this instance.
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{}, len(h.clients))
	for c := range h.clients {
		seen[c.userID] = struct{}{}
	}
	return len(seen)
}
