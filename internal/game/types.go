package game

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PlayerView struct {
	ID               string           `json:"id"`
	CashBalance      decimal.Decimal  `json:"cashBalance"`
	Portfolio        map[string]int64 `json:"portfolio"`
	WeeksPlayed      int              `json:"weeksPlayed"`
	Jailed           bool             `json:"jailed"`
	JailTimeLeft     int              `json:"jailTimeLeft"`
	IndexFundBalance decimal.Decimal  `json:"indexFundBalance"`
	IndexFundEnabled bool             `json:"indexFundEnabled"`
	InsiderUsage     int              `json:"insiderUsage"`
	IsPremium        bool             `json:"isPremium"`
	Businesses       []Business       `json:"businesses"`
	RealEstates      []RealEstate     `json:"realEstates"`
	NetWorth         decimal.Decimal  `json:"netWorth"`
}

type InitData struct {
	Stocks []Stock    `json:"stocks"`
	Player PlayerView `json:"player"`
}

type OrderInput struct {
	PlayerID string
	Ticker   string `json:"ticker"`
	Shares   int64  `json:"shares"`
}

type TradeResult struct {
	Success   bool             `json:"success"`
	Balance   decimal.Decimal  `json:"balance"`
	Portfolio map[string]int64 `json:"portfolio"`
	Price     decimal.Decimal  `json:"price"`
	Notional  decimal.Decimal  `json:"notional"`
}

type InsiderResult struct {
	Tip    string `json:"tip"`
	Caught bool   `json:"caught"`
	// Liquidated is the portfolio value seized when Caught.
	Liquidated decimal.Decimal `json:"liquidated"`
	Recipients int             `json:"recipients"`
}

type IndexFundStatus struct {
	Enabled bool `json:"enabled"`
}

type PremiumStatus struct {
	IsPremium bool `json:"isPremium"`
}

type StocksUpdate struct {
	Stocks []Stock `json:"stocks"`
}

type PlayersUpdate struct {
	Players []PlayerView `json:"players"`
}

// PremiumGranter is the payment collaborator consulted before a premium
// upgrade is applied.
type PremiumGranter interface {
	GrantPremium(ctx context.Context, playerID string) error
}

// Journal records economic events for audit. It is write-only.
type Journal interface {
	Record(ctx context.Context, e JournalEntry) error
}

type JournalEntry struct {
	PlayerID string          `json:"player_id"`
	Action   string          `json:"action"`
	Ticker   string          `json:"ticker,omitempty"`
	Shares   int64           `json:"shares,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	At       time.Time       `json:"at"`
}

const (
	ActionBuy            = "buy"
	ActionSell           = "sell"
	ActionBusiness       = "business_purchase"
	ActionRealEstate     = "real_estate_purchase"
	ActionLiquidation    = "liquidation"
	ActionRedistribution = "redistribution"
	ActionRelease        = "release"
	ActionPremium        = "premium_upgrade"
)

type nopJournal struct{}

func (nopJournal) Record(context.Context, JournalEntry) error { return nil }

type LeaderboardRow struct {
	Rank     int             `json:"rank"`
	PlayerID string          `json:"player_id"`
	NetWorth decimal.Decimal `json:"net_worth"`
	Jailed   bool            `json:"jailed"`
}
