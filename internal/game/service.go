package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	market   *Market
	players  *Registry
	notifier Notifier
	payments PremiumGranter
	journal  Journal
	log      *slog.Logger
	now      func() time.Time

	// enforceMu is taken before any player lock by code that needs to hold
	// more than one player lock at a time.
	enforceMu sync.Mutex
}

func NewService(market *Market, players *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if players == nil {
		players = NewRegistry()
	}
	return &Service{
		market:   market,
		players:  players,
		notifier: NopNotifier{},
		journal:  nopJournal{},
		log:      logger,
		now:      time.Now,
	}
}

func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	s.notifier = n
}

func (s *Service) SetPayments(p PremiumGranter) { s.payments = p }

func (s *Service) SetJournal(j Journal) {
	if j == nil {
		j = nopJournal{}
	}
	s.journal = j
}

func (s *Service) Market() *Market { return s.market }

func (s *Service) Registry() *Registry { return s.players }

// Connect creates a fresh player for a new session.
func (s *Service) Connect() InitData {
	p := s.players.Create()
	p.mu.Lock()
	p.refresh(s.market.Prices())
	view := p.view()
	p.mu.Unlock()
	s.log.Info("player connected", "player_id", p.ID, "players", s.players.Len())
	return InitData{Stocks: s.market.Stocks(), Player: view}
}

func (s *Service) Disconnect(playerID string) bool {
	removed := s.players.Remove(playerID)
	if removed {
		s.log.Info("player disconnected", "player_id", playerID, "players", s.players.Len())
		s.broadcastPlayers()
	}
	return removed
}

// broadcastPlayers pushes the current player list to every session. Callers
// must not hold any player lock.
func (s *Service) broadcastPlayers() {
	s.notifier.Broadcast(Notification{Type: EventPlayersUpdate, Data: PlayersUpdate{Players: s.Players()}})
}

func (s *Service) player(playerID string) (*Player, error) {
	p, ok := s.players.Get(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

func (s *Service) Player(playerID string) (PlayerView, error) {
	p, err := s.player(playerID)
	if err != nil {
		return PlayerView{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view(), nil
}

func (s *Service) Players() []PlayerView {
	out := make([]PlayerView, 0, s.players.Len())
	s.players.Each(func(p *Player) {
		p.mu.Lock()
		out = append(out, p.view())
		p.mu.Unlock()
	})
	return out
}

func (s *Service) Stocks() []Stock {
	return s.market.Stocks()
}

func (s *Service) Leaderboard(limit int) []LeaderboardRow {
	views := s.Players()
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].NetWorth.GreaterThan(views[j].NetWorth)
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	out := make([]LeaderboardRow, 0, len(views))
	for i, v := range views {
		out = append(out, LeaderboardRow{Rank: i + 1, PlayerID: v.ID, NetWorth: v.NetWorth, Jailed: v.Jailed})
	}
	return out
}

func (s *Service) BuyStock(ctx context.Context, in OrderInput) (TradeResult, error) {
	return s.trade(ctx, ActionBuy, in)
}

func (s *Service) SellStock(ctx context.Context, in OrderInput) (TradeResult, error) {
	return s.trade(ctx, ActionSell, in)
}

func (s *Service) trade(ctx context.Context, side string, in OrderInput) (TradeResult, error) {
	var out TradeResult
	in, err := validateOrder(in)
	if err != nil {
		return out, err
	}
	p, err := s.player(in.PlayerID)
	if err != nil {
		return out, err
	}

	p.mu.Lock()
	if p.Jailed {
		p.mu.Unlock()
		return out, fmt.Errorf("%w and cannot trade", ErrJailed)
	}
	price, ok := s.market.Price(in.Ticker)
	if !ok {
		p.mu.Unlock()
		return out, fmt.Errorf("%w: %s", ErrUnknownTicker, in.Ticker)
	}
	var notional decimal.Decimal
	if side == ActionBuy {
		notional, err = p.buy(in.Ticker, in.Shares, price)
	} else {
		notional, err = p.sell(in.Ticker, in.Shares, price)
	}
	if err != nil {
		p.mu.Unlock()
		return out, err
	}
	p.refresh(s.market.Prices())
	out = TradeResult{
		Success:   true,
		Balance:   p.Cash,
		Portfolio: copyPortfolio(p.Portfolio),
		Price:     price,
		Notional:  notional,
	}
	p.mu.Unlock()

	s.broadcastPlayers()
	s.record(ctx, JournalEntry{PlayerID: p.ID, Action: side, Ticker: in.Ticker, Shares: in.Shares, Amount: notional})
	return out, nil
}

// UseInsiderInfo spends one insider tip. Crossing the suspicion threshold
// jails the player and splits the seized portfolio value equally across
// every other connected player. With nobody else connected the value is
// destroyed.
func (s *Service) UseInsiderInfo(ctx context.Context, playerID string) (InsiderResult, error) {
	var out InsiderResult
	p, err := s.player(playerID)
	if err != nil {
		return out, err
	}

	s.enforceMu.Lock()
	defer s.enforceMu.Unlock()

	var box outbox
	var entries []JournalEntry

	p.mu.Lock()
	caught, err := p.recordInsiderUse()
	if err != nil {
		p.mu.Unlock()
		return out, err
	}
	out.Tip = s.market.Tip()
	box.add(p.ID, EventInsiderTip, MessageData{Message: out.Tip})

	if caught {
		prices := s.market.Prices()
		value, jailed := p.jail(prices)
		p.refresh(prices)
		if jailed {
			out.Caught = true
			out.Liquidated = value
			box.add(p.ID, EventJailed, MessageData{Message: jailedMessage})
			entries = append(entries, JournalEntry{PlayerID: p.ID, Action: ActionLiquidation, Amount: value})

			recipients := s.players.Others(p.ID)
			out.Recipients = len(recipients)
			share := redistributionShare(value, len(recipients))
			for _, r := range recipients {
				r.mu.Lock()
				r.Cash = r.Cash.Add(share)
				r.refresh(prices)
				r.mu.Unlock()
				entries = append(entries, JournalEntry{PlayerID: r.ID, Action: ActionRedistribution, Amount: share})
			}
			if len(recipients) == 0 && value.IsPositive() {
				s.log.Warn("liquidated value destroyed: no other players connected", "player_id", p.ID, "value", value.String())
			}
			s.log.Info("player jailed", "player_id", p.ID, "liquidated", value.String(), "recipients", len(recipients))
		}
	} else {
		p.refresh(s.market.Prices())
	}
	p.mu.Unlock()

	box.flush(s.notifier)
	s.record(ctx, entries...)
	return out, nil
}

func (s *Service) ToggleIndexFund(_ context.Context, playerID string, enabled bool) (IndexFundStatus, error) {
	p, err := s.player(playerID)
	if err != nil {
		return IndexFundStatus{}, err
	}
	p.mu.Lock()
	err = p.setIndexFund(enabled)
	p.mu.Unlock()
	if err != nil {
		return IndexFundStatus{}, err
	}
	status := IndexFundStatus{Enabled: enabled}
	s.notifier.Notify(playerID, Notification{Type: EventIndexFundStatus, Data: status})
	return status, nil
}

func (s *Service) BuyBusiness(ctx context.Context, playerID string, spec AssetSpec) (Business, error) {
	p, err := s.player(playerID)
	if err != nil {
		return Business{}, err
	}
	p.mu.Lock()
	b, err := p.purchaseBusiness(spec)
	if err != nil {
		p.mu.Unlock()
		return Business{}, err
	}
	p.refresh(s.market.Prices())
	out := *b
	p.mu.Unlock()

	s.notifier.Notify(playerID, Notification{Type: EventBusinessBought, Data: out})
	s.record(ctx, JournalEntry{PlayerID: playerID, Action: ActionBusiness, Amount: out.Value})
	return out, nil
}

func (s *Service) BuyRealEstate(ctx context.Context, playerID string, spec AssetSpec) (RealEstate, error) {
	p, err := s.player(playerID)
	if err != nil {
		return RealEstate{}, err
	}
	p.mu.Lock()
	r, err := p.purchaseRealEstate(spec)
	if err != nil {
		p.mu.Unlock()
		return RealEstate{}, err
	}
	p.refresh(s.market.Prices())
	out := *r
	p.mu.Unlock()

	s.notifier.Notify(playerID, Notification{Type: EventRealEstateBought, Data: out})
	s.record(ctx, JournalEntry{PlayerID: playerID, Action: ActionRealEstate, Amount: out.Value})
	return out, nil
}

// UpgradeToPremium asks the payment collaborator first; the player record
// is only touched once the payment succeeded.
func (s *Service) UpgradeToPremium(ctx context.Context, playerID string) (PremiumStatus, error) {
	p, err := s.player(playerID)
	if err != nil {
		return PremiumStatus{}, err
	}
	if s.payments == nil {
		return PremiumStatus{}, fmt.Errorf("%w: no payment gateway configured", ErrPaymentDeclined)
	}
	if err := s.payments.GrantPremium(ctx, playerID); err != nil {
		return PremiumStatus{}, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}
	p.mu.Lock()
	p.IsPremium = true
	p.mu.Unlock()

	status := PremiumStatus{IsPremium: true}
	s.notifier.Notify(playerID, Notification{Type: EventPremiumStatus, Data: status})
	s.record(ctx, JournalEntry{PlayerID: playerID, Action: ActionPremium, Amount: decimal.Zero})
	return status, nil
}

func (s *Service) record(ctx context.Context, entries ...JournalEntry) {
	for _, e := range entries {
		if e.At.IsZero() {
			e.At = s.now().UTC()
		}
		if err := s.journal.Record(ctx, e); err != nil {
			s.log.Error("journal record failed", "action", e.Action, "player_id", e.PlayerID, "err", err)
		}
	}
}
