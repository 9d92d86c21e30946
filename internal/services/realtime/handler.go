package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	authsvc "github.com/LURY-TMP/matzon-platform/internal/services/auth"
)

const maxInboundFrame = 4 << 10

type Authenticator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (authsvc.Identity, error)
}

type Presence interface {
	AddSocket(ctx context.Context, userID, socketID string) (int64, error)
	RemoveSocket(ctx context.Context, userID, socketID string) (int64, error)
	OnlineCount(ctx context.Context) (int64, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type roomRequest struct {
	TournamentID string `json:"tournamentId"`
	MatchID      string `json:"matchId"`
}

// Handler serves the websocket endpoint on top of a Hub.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	presence Presence
	users    UserLookup
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, auth Authenticator, presence Presence, users UserLookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		hub:      hub,
		auth:     auth,
		presence: presence,
		users:    users,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1 << 10,
		WriteBufferSize: 1 << 10,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || h.auth == nil {
		http.Error(w, "realtime is unavailable", http.StatusServiceUnavailable)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	identity, err := h.auth.ValidateAccessToken(r.Context(), token)
	if err != nil {
		h.logger.Debug("websocket auth rejected", zap.Error(err))
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newClient(uuid.NewString(), identity.UserID, h.username(ctx, identity.UserID), h.hub.cfg.SendBuffer)
	h.connect(ctx, client)
	defer h.disconnect(client)

	go h.writeLoop(ctx, cancel, conn, client)
	h.readLoop(conn, client)
}

func (h *Handler) connect(ctx context.Context, c *Client) {
	h.hub.register(c)
	if h.presence != nil {
		if _, err := h.presence.AddSocket(ctx, c.userID, c.id); err != nil {
			h.logger.Warn("track socket", zap.String("user_id", c.userID), zap.Error(err))
		}
	}

	online := h.onlineCount(ctx)
	h.hub.sendTo(c, EventConnected, map[string]any{
		"userId":      c.userID,
		"username":    c.username,
		"onlineCount": online,
		"timestamp":   h.hub.now().UTC(),
	})
	h.hub.EmitGlobal(EventUserOnline, map[string]any{
		"userId":      c.userID,
		"username":    c.username,
		"onlineCount": online,
	})
	h.logger.Info("websocket connected", zap.String("user_id", c.userID), zap.String("socket_id", c.id))
}

func (h *Handler) disconnect(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remaining := int64(h.hub.unregister(c))
	if h.presence != nil {
		left, err := h.presence.RemoveSocket(ctx, c.userID, c.id)
		if err != nil {
			h.logger.Warn("untrack socket", zap.String("user_id", c.userID), zap.Error(err))
		} else {
			remaining = left
		}
	}

	if remaining == 0 {
		h.hub.EmitGlobal(EventUserOffline, map[string]any{
			"userId":      c.userID,
			"username":    c.username,
			"onlineCount": h.onlineCount(ctx),
		})
	}
	h.logger.Info("websocket disconnected", zap.String("user_id", c.userID), zap.String("socket_id", c.id))
}

func (h *Handler) readLoop(conn *websocket.Conn, c *Client) {
	pongWait := 2 * h.hub.cfg.PingInterval
	conn.SetReadLimit(maxInboundFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.logger.Debug("websocket read ended", zap.String("socket_id", c.id), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleFrame(c, msg)
	}
}

func (h *Handler) handleFrame(c *Client, msg inbound) {
	if msg.Event == "ping" {
		h.hub.sendTo(c, EventPong, map[string]any{"timestamp": h.hub.now().UTC()})
		return
	}

	if !h.hub.throttle.allow(c.id) {
		throttledFrames.Inc()
		h.logger.Warn("websocket rate limit exceeded", zap.String("user_id", c.userID), zap.String("socket_id", c.id))
		h.hub.sendTo(c, EventException, map[string]any{"message": "Rate limit exceeded. Slow down."})
		return
	}

	var req roomRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return
		}
	}

	switch msg.Event {
	case "join:tournament":
		if req.TournamentID == "" {
			return
		}
		room := TournamentRoom(req.TournamentID)
		h.hub.join(c, room)
		h.hub.emitToRoomExcept(room, c, EventTournamentUserJoined, h.roomPayload(c, req.TournamentID))
	case "leave:tournament":
		if req.TournamentID == "" {
			return
		}
		room := TournamentRoom(req.TournamentID)
		h.hub.leave(c, room)
		h.hub.emitToRoomExcept(room, c, EventTournamentUserLeft, h.roomPayload(c, req.TournamentID))
	case "join:match":
		if req.MatchID != "" {
			h.hub.join(c, MatchRoom(req.MatchID))
		}
	case "leave:match":
		if req.MatchID != "" {
			h.hub.leave(c, MatchRoom(req.MatchID))
		}
	default:
		h.logger.Debug("unknown websocket event", zap.String("event", msg.Event))
	}
}

func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(h.hub.cfg.PingInterval)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case frame := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.hub.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("websocket write failed", zap.String("socket_id", c.id), zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.hub.cfg.WriteTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) roomPayload(c *Client, tournamentID string) map[string]any {
	return map[string]any{
		"userId":       c.userID,
		"username":     c.username,
		"tournamentId": tournamentID,
		"timestamp":    h.hub.now().UTC(),
	}
}

func (h *Handler) onlineCount(ctx context.Context) int64 {
	if h.presence != nil {
		count, err := h.presence.OnlineCount(ctx)
		if err == nil {
			return count
		}
		h.logger.Warn("count online users", zap.Error(err))
	}
	return int64(h.hub.OnlineUsers())
}

func (h *Handler) username(ctx context.Context, userID string) string {
	if h.users == nil {
		return ""
	}
	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Username
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.hub.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.hub.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func bearerToken(value string) string {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
