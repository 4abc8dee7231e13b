package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) != 5 {
		t.Fatalf("got %d stocks want 5", len(catalog))
	}
	sectors := map[string]bool{}
	for _, s := range catalog {
		if err := ValidateTicker(s.Ticker); err != nil {
			t.Fatalf("catalog ticker %q invalid", s.Ticker)
		}
		sectors[s.Sector] = true
	}
	if len(sectors) != len(catalog) {
		t.Fatalf("expected distinct sectors, got %v", sectors)
	}
}

func TestAdvanceIsReproducibleBySeed(t *testing.T) {
	a := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(42)), "normal")
	b := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(42)), "normal")
	for i := 0; i < 50; i++ {
		a.Advance()
		b.Advance()
	}
	sa, sb := a.Stocks(), b.Stocks()
	for i := range sa {
		if !sa[i].Price.Equal(sb[i].Price) {
			t.Fatalf("%s diverged: %s vs %s", sa[i].Ticker, sa[i].Price, sb[i].Price)
		}
	}
}

func TestTipsDoNotShiftSeededPrices(t *testing.T) {
	quiet := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(42)), "normal")
	chatty := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(42)), "normal")
	for i := 0; i < 20; i++ {
		for j := 0; j < i%4; j++ {
			chatty.Tip()
		}
		quiet.Advance()
		chatty.Advance()
	}
	qs, cs := quiet.Stocks(), chatty.Stocks()
	for i := range qs {
		if !qs[i].Price.Equal(cs[i].Price) {
			t.Fatalf("%s diverged after tips: %s vs %s", qs[i].Ticker, qs[i].Price, cs[i].Price)
		}
	}
}

func TestNilRandIsSeeded(t *testing.T) {
	m := NewMarket(DefaultCatalog(), nil, "normal")
	m.Advance()
	if m.Tip() == "" {
		t.Fatal("empty tip")
	}
}

func TestAdvanceMovesWithinBand(t *testing.T) {
	m := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(3)), "normal")
	before := m.Prices()
	m.Advance()
	for _, s := range m.Stocks() {
		prev, _ := before.Price(s.Ticker)
		lo := prev.Mul(decimal.NewFromFloat(1 - s.Volatility/2 + s.GrowthTrend)).Round(2).Sub(dec("0.01"))
		hi := prev.Mul(decimal.NewFromFloat(1 + s.Volatility/2 + s.GrowthTrend)).Round(2).Add(dec("0.01"))
		if s.Price.LessThan(lo) || s.Price.GreaterThan(hi) {
			t.Fatalf("%s moved outside band: %s not in [%s, %s]", s.Ticker, s.Price, lo, hi)
		}
		if !s.Price.Equal(s.Price.Round(2)) {
			t.Fatalf("%s not rounded to cents: %s", s.Ticker, s.Price)
		}
	}
}

func TestNextPriceClampsToOne(t *testing.T) {
	tests := []struct {
		price      string
		volatility float64
		trend      float64
		draw       float64
	}{
		{price: "1", volatility: 1, trend: 0, draw: 0},
		{price: "1", volatility: 1, trend: -0.2, draw: 0},
		{price: "1.01", volatility: 0.9, trend: 0, draw: 0},
		{price: "3", volatility: 1, trend: -0.6, draw: 0},
	}
	for _, tc := range tests {
		got := nextPrice(dec(tc.price), tc.volatility, tc.trend, tc.draw)
		if got.LessThan(decimal.NewFromInt(1)) {
			t.Fatalf("price %s fell below 1: %s", tc.price, got)
		}
	}
}

func TestNextPriceFormula(t *testing.T) {
	// draw 0.75 with volatility 0.1 is +2.5% noise, plus 0.5% trend.
	got := nextPrice(dec("20"), 0.1, 0.005, 0.75)
	if !got.Equal(dec("20.6")) {
		t.Fatalf("got %s want 20.60", got)
	}
}

func TestMarketPriceLookup(t *testing.T) {
	m := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(1)), "")
	p, ok := m.Price("SOLC")
	if !ok || !p.Equal(dec("20")) {
		t.Fatalf("got %s %v want 20 true", p, ok)
	}
	if _, ok := m.Price("NOPE"); ok {
		t.Fatalf("expected unknown ticker miss")
	}
}

func TestVolatilityScale(t *testing.T) {
	if volatilityScale("calm") >= volatilityScale("normal") || volatilityScale("normal") >= volatilityScale("wild") {
		t.Fatalf("volatility modes not ordered")
	}
	if volatilityScale("bogus") != 1 {
		t.Fatalf("unknown mode should fall back to normal")
	}
}

func TestTipNamesASector(t *testing.T) {
	m := NewMarket(DefaultCatalog(), rand.New(rand.NewSource(9)), "normal")
	tip := m.Tip()
	found := false
	for _, sector := range m.Sectors() {
		if strings.HasPrefix(tip, sector+" sector") {
			found = true
		}
	}
	if !found {
		t.Fatalf("tip %q does not name a catalog sector", tip)
	}
}
