package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Stock struct {
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Sector      string          `json:"sector"`
	Price       decimal.Decimal `json:"price"`
	Volatility  float64         `json:"volatility"`
	GrowthTrend float64         `json:"growthTrend"`
}

// PriceBook is an immutable ticker -> price snapshot.
type PriceBook map[string]decimal.Decimal

func (b PriceBook) Price(ticker string) (decimal.Decimal, bool) {
	p, ok := b[ticker]
	return p, ok
}

func DefaultCatalog() []Stock {
	return []Stock{
		{Ticker: "SOLC", Name: "SolarCorp", Sector: "Energy", Price: decimal.NewFromInt(20), Volatility: 0.05, GrowthTrend: 0.002},
		{Ticker: "NEUR", Name: "NeuroTech", Sector: "Tech", Price: decimal.NewFromInt(15), Volatility: 0.07, GrowthTrend: 0.003},
		{Ticker: "BIOC", Name: "BioMedCo", Sector: "Healthcare", Price: decimal.NewFromInt(12), Volatility: 0.06, GrowthTrend: 0.002},
		{Ticker: "FOOD", Name: "Snack Empire", Sector: "Retail", Price: decimal.NewFromInt(10), Volatility: 0.04, GrowthTrend: 0.001},
		{Ticker: "RENT", Name: "RentAll", Sector: "Real Estate", Price: decimal.NewFromInt(25), Volatility: 0.03, GrowthTrend: 0.002},
	}
}

// Market owns the stock catalog. Prices only move in Advance.
type Market struct {
	mu     sync.RWMutex
	stocks []*Stock
	index  map[string]*Stock
	scale  float64

	randMu  sync.Mutex
	rand    *rand.Rand
	// tips draw from their own source so insider calls never shift the
	// seeded price path.
	tipRand *rand.Rand
}

// NewMarket uses rng for every price move. A nil rng is seeded from the
// clock.
func NewMarket(catalog []Stock, rng *rand.Rand, volatility string) *Market {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Market{
		index:   make(map[string]*Stock, len(catalog)),
		scale:   volatilityScale(volatility),
		rand:    rng,
		tipRand: rand.New(rand.NewSource(rng.Int63())),
	}
	for _, s := range catalog {
		st := s
		m.stocks = append(m.stocks, &st)
		m.index[st.Ticker] = &st
	}
	return m
}

func volatilityScale(mode string) float64 {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "calm":
		return 0.5
	case "wild":
		return 2
	default:
		return 1
	}
}

func (m *Market) nextFloat() float64 {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rand.Float64()
}

func (m *Market) nextTipFloat() float64 {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.tipRand.Float64()
}

// Advance moves every price one step of the random walk.
func (m *Market) Advance() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stocks {
		s.Price = nextPrice(s.Price, s.Volatility*m.scale, s.GrowthTrend, m.nextFloat())
	}
}

func nextPrice(price decimal.Decimal, volatility, trend, draw float64) decimal.Decimal {
	noise := (draw - 0.5) * volatility
	factor := decimal.NewFromFloat(1 + noise + trend)
	next := price.Mul(factor)
	if next.LessThan(minStockPrice) {
		next = minStockPrice
	}
	return roundCents(next)
}

// Stocks returns a copy of the catalog in its original order.
func (m *Market) Stocks() []Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, *s)
	}
	return out
}

func (m *Market) Price(ticker string) (decimal.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.index[ticker]
	if !ok {
		return decimal.Zero, false
	}
	return s.Price, true
}

func (m *Market) Prices() PriceBook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(PriceBook, len(m.stocks))
	for _, s := range m.stocks {
		out[s.Ticker] = s.Price
	}
	return out
}

func (m *Market) Sectors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool, len(m.stocks))
	var out []string
	for _, s := range m.stocks {
		if !seen[s.Sector] {
			seen[s.Sector] = true
			out = append(out, s.Sector)
		}
	}
	sort.Strings(out)
	return out
}

// Tip produces a flavor insider hint. It is not derived from future prices.
func (m *Market) Tip() string {
	sectors := m.Sectors()
	if len(sectors) == 0 {
		return "No tips this week."
	}
	sector := sectors[int(m.nextTipFloat()*float64(len(sectors)))%len(sectors)]
	pct := 2 + int(m.nextTipFloat()*10)
	verb := "rise"
	if m.nextTipFloat() < 0.35 {
		verb = "fall"
	}
	return fmt.Sprintf("%s sector expected to %s %d%% next week.", sector, verb, pct)
}
