package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tycoon/internal/game"

	"github.com/gorilla/websocket"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Dialer  *websocket.Dialer
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		Dialer: websocket.DefaultDialer,
	}
}

type StocksPayload struct {
	Stocks []game.Stock `json:"stocks"`
}

type PlayersPayload struct {
	Players []game.PlayerView `json:"players"`
}

type LeaderboardPayload struct {
	Rows []game.LeaderboardRow `json:"rows"`
}

func (c *Client) Stocks(ctx context.Context) (StocksPayload, error) {
	var out StocksPayload
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stocks", nil, &out)
	return out, err
}

func (c *Client) Players(ctx context.Context) (PlayersPayload, error) {
	var out PlayersPayload
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/players", nil, &out)
	return out, err
}

func (c *Client) Player(ctx context.Context, id string) (game.PlayerView, error) {
	var out game.PlayerView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/players/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) (LeaderboardPayload, error) {
	var out LeaderboardPayload
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Frame is one server -> client message.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Stream is a live game session.
type Stream struct {
	conn   *websocket.Conn
	frames chan Frame

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Connect opens a session. The server creates a fresh player and sends
// init as the first frame.
func (c *Client) Connect(ctx context.Context) (*Stream, error) {
	target, err := c.wsURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := c.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	s := &Stream{conn: conn, frames: make(chan Frame, 64)}
	go s.readLoop()
	return s, nil
}

func (s *Stream) readLoop() {
	defer close(s.frames)
	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.errMu.Lock()
				s.err = err
				s.errMu.Unlock()
			}
			return
		}
		s.frames <- f
	}
}

// Frames is closed when the connection ends; Err then reports why.
func (s *Stream) Frames() <-chan Frame { return s.frames }

func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Stream) Send(cmd Command) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(cmd)
}

func (s *Stream) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}

// Await returns the next frame of type typ, skipping others.
func (s *Stream) Await(ctx context.Context, typ string) (Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case f, ok := <-s.frames:
			if !ok {
				if err := s.Err(); err != nil {
					return Frame{}, err
				}
				return Frame{}, io.EOF
			}
			if f.Type == typ {
				return f, nil
			}
		}
	}
}
