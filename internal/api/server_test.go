package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tycoon/internal/config"
	"tycoon/internal/game"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type approveAll struct{}

func (approveAll) GrantPremium(context.Context, string) error { return nil }

type harness struct {
	svc   *game.Service
	sched *game.Scheduler
	srv   *httptest.Server
	api   *Server
}

func newHarness(t *testing.T, cfg config.APIConfig) *harness {
	t.Helper()
	market := game.NewMarket(game.DefaultCatalog(), rand.New(rand.NewSource(11)), "normal")
	svc := game.NewService(market, game.NewRegistry(), nil)
	svc.SetPayments(approveAll{})
	if cfg.CommandRate == 0 {
		cfg.CommandRate = 1000
		cfg.CommandBurst = 1000
	}
	api := New(cfg, nil, svc)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &harness{svc: svc, sched: game.NewScheduler(svc), srv: srv, api: api}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	env := map[string]any{"type": typ}
	if payload != nil {
		env["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(env))
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == typ {
			return f
		}
	}
}

func errorText(t *testing.T, f frame) string {
	t.Helper()
	var msg game.MessageData
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg.Message
}

func TestWebSocketInitAndTrade(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	conn := h.dial(t)

	var hello game.InitData
	require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventInit).Data, &hello))
	require.NotEmpty(t, hello.Player.ID)
	require.Len(t, hello.Stocks, 5)
	require.True(t, hello.Player.CashBalance.IsZero())

	send(t, conn, cmdBuyStock, map[string]any{"ticker": "SOLC", "shares": 5})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "insufficient funds")

	h.sched.Tick(context.Background())
	readUntil(t, conn, game.EventPlayersUpdate)

	send(t, conn, cmdBuyStock, map[string]any{"ticker": "solc", "shares": 5})
	var res game.TradeResult
	require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventTradeResult).Data, &res))
	require.True(t, res.Success)
	require.Equal(t, int64(5), res.Portfolio["SOLC"])
	want := decimal.NewFromInt(200).Sub(res.Price.Mul(decimal.NewFromInt(5)))
	require.True(t, res.Balance.Equal(want), "balance %s want %s", res.Balance, want)

	send(t, conn, cmdSellStock, map[string]any{"ticker": "SOLC", "shares": 5})
	var sold game.TradeResult
	require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventTradeResult).Data, &sold))
	require.True(t, sold.Success)
	require.Empty(t, sold.Portfolio)
	require.True(t, sold.Balance.Equal(decimal.NewFromInt(200)), "balance %s want 200", sold.Balance)
}

func TestWebSocketRejectsBadFrames(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	conn := h.dial(t)
	readUntil(t, conn, game.EventInit)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "malformed message")

	send(t, conn, "dance", nil)
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "unknown message type: dance")

	send(t, conn, cmdBuyStock, map[string]any{"ticker": "SOLC", "shares": "lots"})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "malformed message")

	send(t, conn, cmdSellStock, map[string]any{"ticker": "SOLC", "shares": -1})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "invalid order")

	players := h.svc.Players()
	require.Len(t, players, 1)
	require.True(t, players[0].CashBalance.IsZero())
	require.Empty(t, players[0].Portfolio)
}

func TestWebSocketPremiumAndInsider(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	conn := h.dial(t)
	readUntil(t, conn, game.EventInit)

	send(t, conn, cmdUseInsiderInfo, nil)
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "premium")

	send(t, conn, cmdUpgradeToPremium, nil)
	var status game.PremiumStatus
	require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventPremiumStatus).Data, &status))
	require.True(t, status.IsPremium)

	send(t, conn, cmdUseInsiderInfo, nil)
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventInsiderTip)), "sector expected to")

	send(t, conn, cmdToggleIndexFund, map[string]any{"enabled": true})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "only available while jailed")

	send(t, conn, cmdBuyBusiness, map[string]any{"cost": 10})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "insufficient funds")
}

func TestWebSocketBroadcastReachesEverySession(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	a := h.dial(t)
	b := h.dial(t)
	readUntil(t, a, game.EventInit)
	readUntil(t, b, game.EventInit)
	require.Eventually(t, func() bool { return h.api.Hub().Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.sched.Tick(context.Background())
	for _, conn := range []*websocket.Conn{a, b} {
		var upd game.StocksUpdate
		require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventStocksUpdate).Data, &upd))
		require.Len(t, upd.Stocks, 5)
		var players game.PlayersUpdate
		require.NoError(t, json.Unmarshal(readUntil(t, conn, game.EventPlayersUpdate).Data, &players))
		require.Len(t, players.Players, 2)
	}
}

func TestWebSocketDisconnectRemovesPlayer(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	conn := h.dial(t)
	readUntil(t, conn, game.EventInit)
	require.Equal(t, 1, h.svc.Registry().Len())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return h.svc.Registry().Len() == 0 && h.api.Hub().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRateLimit(t *testing.T) {
	h := newHarness(t, config.APIConfig{CommandRate: 0.001, CommandBurst: 1})
	conn := h.dial(t)
	readUntil(t, conn, game.EventInit)

	send(t, conn, cmdSellStock, map[string]any{"ticker": "SOLC", "shares": 1})
	require.Contains(t, errorText(t, readUntil(t, conn, game.EventError)), "not enough shares")
	send(t, conn, cmdSellStock, map[string]any{"ticker": "SOLC", "shares": 1})
	require.Equal(t, "rate limited", errorText(t, readUntil(t, conn, game.EventError)))
}

func TestHTTPRoutes(t *testing.T) {
	h := newHarness(t, config.APIConfig{})
	data := h.svc.Connect()

	get := func(path string) (*http.Response, map[string]any) {
		resp, err := http.Get(h.srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp, body
	}

	resp, body := get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, body = get("/v1/stocks")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["stocks"], 5)

	resp, body = get("/v1/players")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["players"], 1)

	resp, body = get("/v1/players/" + data.Player.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, data.Player.ID, body["id"])

	resp, body = get("/v1/players/ghost")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "player not found", body["error"])

	resp, body = get("/v1/leaderboard?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["rows"], 1)

	resp, _ = get("/v1/leaderboard?limit=x")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "internal error", errorMessage(errors.New("db exploded")))
	require.Equal(t, "rate limited", errorMessage(errRateLimited))
	require.Contains(t, errorMessage(game.ErrJailed), "jailed")
}

func TestHubDropsSlowSession(t *testing.T) {
	hub := NewHub(nil)
	s := newSession("p1", nil, nil)
	s.send = make(chan []byte, 1)
	hub.attach(s)

	hub.Notify("p1", game.Notification{Type: game.EventInsiderTip})
	hub.Notify("p1", game.Notification{Type: game.EventInsiderTip})

	select {
	case <-s.done:
	default:
		t.Fatalf("slow session was not closed")
	}
	hub.Notify("nobody", game.Notification{Type: game.EventJailed})
	hub.Broadcast(game.Notification{Type: game.EventStocksUpdate})
}
