package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tycoon/internal/game"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 256
	commandTimeout = 15 * time.Second
)

// session is one websocket connection bound to one player.
type session struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte
	limiter  *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(playerID string, conn *websocket.Conn, limiter *rate.Limiter) *session {
	return &session{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		limiter:  limiter,
		done:     make(chan struct{}),
	}
}

// enqueue reports false only when the queue is full. Messages for a
// closed session are discarded.
func (s *session) enqueue(msg []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

func (s *session) enqueueJSON(n game.Notification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if !s.enqueue(msg) {
		s.close()
	}
	return nil
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads commands until the peer goes away and hands each one to
// handle. Replies are queued on the session.
func (s *session) readPump(ctx context.Context, handle func(context.Context, *session, []byte) (game.Notification, bool), onErr func(error)) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				onErr(err)
			}
			return
		}
		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		reply, ok := handle(cmdCtx, s, raw)
		cancel()
		if ok {
			if err := s.enqueueJSON(reply); err != nil {
				onErr(err)
			}
		}
	}
}
