package cli

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"tycoon/internal/api"
	"tycoon/internal/config"
	"tycoon/internal/game"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*game.Service, *httptest.Server) {
	t.Helper()
	market := game.NewMarket(game.DefaultCatalog(), rand.New(rand.NewSource(5)), "calm")
	svc := game.NewService(market, nil, nil)
	srv := httptest.NewServer(api.New(config.APIConfig{CommandRate: 100, CommandBurst: 100}, nil, svc).Handler())
	t.Cleanup(srv.Close)
	return svc, srv
}

func TestClientHTTP(t *testing.T) {
	svc, srv := newTestServer(t)
	data := svc.Connect()
	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	stocks, err := c.Stocks(ctx)
	require.NoError(t, err)
	require.Len(t, stocks.Stocks, 5)

	players, err := c.Players(ctx)
	require.NoError(t, err)
	require.Len(t, players.Players, 1)

	view, err := c.Player(ctx, data.Player.ID)
	require.NoError(t, err)
	require.Equal(t, data.Player.ID, view.ID)

	_, err = c.Player(ctx, "ghost")
	require.ErrorContains(t, err, "api status 404")

	board, err := c.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board.Rows, 1)
}

func TestClientStream(t *testing.T) {
	svc, srv := newTestServer(t)
	c := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Connect(ctx)
	require.NoError(t, err)

	f, err := stream.Await(ctx, game.EventInit)
	require.NoError(t, err)
	var hello game.InitData
	require.NoError(t, json.Unmarshal(f.Data, &hello))
	require.NotEmpty(t, hello.Player.ID)
	require.Equal(t, 1, svc.Registry().Len())

	cmd, err := ParseLine("sell SOLC 1")
	require.NoError(t, err)
	require.NoError(t, stream.Send(cmd))
	f, err = stream.Await(ctx, game.EventError)
	require.NoError(t, err)
	require.Contains(t, string(f.Data), "not enough shares")

	require.NoError(t, stream.Close())
	require.Eventually(t, func() bool { return svc.Registry().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":    "ws://localhost:8080/ws",
		"https://game.example.com": "wss://game.example.com/ws",
		"http://host/prefix":       "ws://host/prefix/ws",
	}
	for base, want := range tests {
		got, err := NewClient(base).wsURL()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := NewClient("ftp://nope").wsURL()
	require.Error(t, err)
}
