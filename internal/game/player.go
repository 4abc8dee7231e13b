package game

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Player is one connected session's economic record. All fields are
// guarded by mu; callers outside this package go through Service.
type Player struct {
	mu sync.Mutex

	ID               string
	Cash             decimal.Decimal
	Portfolio        map[string]int64
	WeeksPlayed      int
	Jailed           bool
	JailTimeLeft     int
	IndexFundBalance decimal.Decimal
	IndexFundEnabled bool
	InsiderUsage     int
	IsPremium        bool
	Businesses       map[string]*Business
	RealEstates      map[string]*RealEstate
	NetWorth         decimal.Decimal
}

func NewPlayer(id string) *Player {
	return &Player{
		ID:          id,
		Portfolio:   make(map[string]int64),
		Businesses:  make(map[string]*Business),
		RealEstates: make(map[string]*RealEstate),
	}
}

func (p *Player) portfolioValue(prices PriceBook) decimal.Decimal {
	total := decimal.Zero
	for ticker, shares := range p.Portfolio {
		price, ok := prices.Price(ticker)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(shares)))
	}
	return total
}

func (p *Player) assetValue() decimal.Decimal {
	total := decimal.Zero
	for _, b := range p.Businesses {
		if b != nil {
			total = total.Add(b.Value)
		}
	}
	for _, r := range p.RealEstates {
		if r != nil {
			total = total.Add(r.Value)
		}
	}
	return total
}

// computeNetWorth always rebuilds the figure from its parts.
func (p *Player) computeNetWorth(prices PriceBook) decimal.Decimal {
	return p.Cash.
		Add(p.portfolioValue(prices)).
		Add(p.assetValue()).
		Add(p.IndexFundBalance)
}

func (p *Player) refresh(prices PriceBook) {
	p.NetWorth = p.computeNetWorth(prices)
}

func (p *Player) view() PlayerView {
	v := PlayerView{
		ID:               p.ID,
		CashBalance:      p.Cash,
		Portfolio:        make(map[string]int64, len(p.Portfolio)),
		WeeksPlayed:      p.WeeksPlayed,
		Jailed:           p.Jailed,
		JailTimeLeft:     p.JailTimeLeft,
		IndexFundBalance: p.IndexFundBalance,
		IndexFundEnabled: p.IndexFundEnabled,
		InsiderUsage:     p.InsiderUsage,
		IsPremium:        p.IsPremium,
		NetWorth:         p.NetWorth,
	}
	for t, n := range p.Portfolio {
		v.Portfolio[t] = n
	}
	for _, b := range p.Businesses {
		if b != nil {
			v.Businesses = append(v.Businesses, *b)
		}
	}
	for _, r := range p.RealEstates {
		if r != nil {
			v.RealEstates = append(v.RealEstates, *r)
		}
	}
	sort.Slice(v.Businesses, func(i, j int) bool { return v.Businesses[i].ID < v.Businesses[j].ID })
	sort.Slice(v.RealEstates, func(i, j int) bool { return v.RealEstates[i].ID < v.RealEstates[j].ID })
	return v
}

func copyPortfolio(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
