package api

import (
	"encoding/json"
	"log/slog"
	"sync"

	"tycoon/internal/game"
)

// Hub maps player ids to live sessions and fans notifications out to them.
// It satisfies game.Notifier.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	log      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*session),
		log:      logger,
	}
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	h.sessions[s.playerID] = s
	h.mu.Unlock()
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if cur, ok := h.sessions[s.playerID]; ok && cur == s {
		delete(h.sessions, s.playerID)
	}
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) Notify(playerID string, n game.Notification) {
	h.mu.RLock()
	s, ok := h.sessions[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	msg, err := json.Marshal(n)
	if err != nil {
		h.log.Error("encode notification failed", "type", n.Type, "player_id", playerID, "err", err)
		return
	}
	h.deliver(s, msg)
}

func (h *Hub) Broadcast(n game.Notification) {
	msg, err := json.Marshal(n)
	if err != nil {
		h.log.Error("encode broadcast failed", "type", n.Type, "err", err)
		return
	}
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()
	for _, s := range targets {
		h.deliver(s, msg)
	}
}

// deliver never blocks. A session whose queue is full is closed; its read
// loop then runs the normal disconnect path.
func (h *Hub) deliver(s *session, msg []byte) {
	if s.enqueue(msg) {
		return
	}
	h.log.Warn("dropping slow websocket client", "player_id", s.playerID)
	s.close()
}
