package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tycoon/internal/config"
	"tycoon/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	game     *game.Service
	hub      *Hub
	mux      *chi.Mux
	upgrader websocket.Upgrader
}

// New builds the HTTP surface and registers its hub as the service's
// notifier.
func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommandRate <= 0 {
		cfg.CommandRate = 20
	}
	if cfg.CommandBurst < 1 {
		cfg.CommandBurst = 1
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: gameSvc,
		hub:  NewHub(logger),
		mux:  chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	gameSvc.SetNotifier(s.hub)
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Long-lived; kept outside the request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "players": s.game.Registry().Len(), "sessions": s.hub.Len()})
		})
		r.Route("/v1", func(r chi.Router) {
			r.Get("/stocks", s.handleStocksList)
			r.Get("/players", s.handlePlayersList)
			r.Get("/players/{id}", s.handlePlayerDetail)
			r.Get("/leaderboard", s.handleLeaderboard)
		})
	})
}

func (s *Server) handleStocksList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stocks": s.game.Stocks()})
}

func (s *Server) handlePlayersList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"players": s.game.Players()})
}

func (s *Server) handlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	view, err := s.game.Player(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": s.game.Leaderboard(limit)})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	data := s.game.Connect()
	sess := newSession(data.Player.ID, conn, rate.NewLimiter(rate.Limit(s.cfg.CommandRate), s.cfg.CommandBurst))
	// init is queued before the session is visible to broadcasts.
	if err := sess.enqueueJSON(game.Notification{Type: game.EventInit, Data: data}); err != nil {
		s.log.Error("encode init failed", "player_id", data.Player.ID, "err", err)
	}
	s.hub.attach(sess)
	go sess.writePump()

	sess.readPump(r.Context(), s.dispatch, func(err error) {
		s.log.Warn("websocket session error", "player_id", sess.playerID, "err", err)
	})

	s.hub.detach(sess)
	s.game.Disconnect(sess.playerID)
	sess.close()
}

// dispatch runs one inbound frame. The bool reports whether a direct reply
// should be queued; side notifications flow through the hub.
func (s *Server) dispatch(ctx context.Context, sess *session, raw []byte) (game.Notification, bool) {
	if !sess.limiter.Allow() {
		return errorFrame(errorMessage(errRateLimited)), true
	}
	reply, err := s.runCommand(ctx, sess.playerID, raw)
	if err != nil {
		if game.Kind(err) == "internal" && !errors.Is(err, errMalformed) && !errors.Is(err, errUnknownType) {
			s.log.Error("command failed", "player_id", sess.playerID, "err", err)
		}
		return errorFrame(errorMessage(err)), true
	}
	if reply == nil {
		return game.Notification{}, false
	}
	return *reply, true
}

func (s *Server) runCommand(ctx context.Context, playerID string, raw []byte) (*game.Notification, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case cmdBuyStock, cmdSellStock:
		var p tradePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		in := game.OrderInput{PlayerID: playerID, Ticker: p.Ticker, Shares: p.Shares}
		var res game.TradeResult
		if env.Type == cmdBuyStock {
			res, err = s.game.BuyStock(ctx, in)
		} else {
			res, err = s.game.SellStock(ctx, in)
		}
		if err != nil {
			return nil, err
		}
		return &game.Notification{Type: game.EventTradeResult, Data: res}, nil
	case cmdUseInsiderInfo:
		_, err := s.game.UseInsiderInfo(ctx, playerID)
		return nil, err
	case cmdToggleIndexFund:
		var p togglePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		_, err := s.game.ToggleIndexFund(ctx, playerID, p.Enabled)
		return nil, err
	case cmdBuyBusiness:
		var spec game.AssetSpec
		if err := decodePayload(env, &spec); err != nil {
			return nil, err
		}
		_, err := s.game.BuyBusiness(ctx, playerID, spec)
		return nil, err
	case cmdBuyRealEstate:
		var spec game.AssetSpec
		if err := decodePayload(env, &spec); err != nil {
			return nil, err
		}
		_, err := s.game.BuyRealEstate(ctx, playerID, spec)
		return nil, err
	case cmdUpgradeToPremium:
		_, err := s.game.UpgradeToPremium(ctx, playerID)
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownType, env.Type)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrPlayerNotFound), errors.Is(err, game.ErrUnknownTicker):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrInsufficientShares),
		errors.Is(err, game.ErrInvalidOrder), errors.Is(err, game.ErrInvalidAsset):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrJailed), errors.Is(err, game.ErrNotJailed), errors.Is(err, game.ErrNotPremium):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
