package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// buy and sell run with p.mu held. They validate everything before the
// first write so a rejected trade never leaves partial state behind.

func (p *Player) buy(ticker string, shares int64, price decimal.Decimal) (decimal.Decimal, error) {
	if p.Jailed {
		return decimal.Zero, fmt.Errorf("%w and cannot trade", ErrJailed)
	}
	cost := price.Mul(decimal.NewFromInt(shares))
	if cost.GreaterThan(p.Cash) {
		return decimal.Zero, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost.StringFixed(2), p.Cash.StringFixed(2))
	}
	p.Cash = p.Cash.Sub(cost)
	p.Portfolio[ticker] += shares
	return cost, nil
}

func (p *Player) sell(ticker string, shares int64, price decimal.Decimal) (decimal.Decimal, error) {
	if p.Jailed {
		return decimal.Zero, fmt.Errorf("%w and cannot trade", ErrJailed)
	}
	held := p.Portfolio[ticker]
	if held < shares {
		return decimal.Zero, fmt.Errorf("%w: hold %d %s", ErrInsufficientShares, held, ticker)
	}
	proceeds := price.Mul(decimal.NewFromInt(shares))
	p.Cash = p.Cash.Add(proceeds)
	if held == shares {
		delete(p.Portfolio, ticker)
	} else {
		p.Portfolio[ticker] = held - shares
	}
	return proceeds, nil
}

func validateOrder(in OrderInput) (OrderInput, error) {
	in.Ticker = NormalizeTicker(in.Ticker)
	if in.Ticker == "" {
		return in, fmt.Errorf("%w: ticker is required", ErrInvalidOrder)
	}
	if err := ValidateTicker(in.Ticker); err != nil {
		return in, fmt.Errorf("%w: malformed ticker %q", ErrInvalidOrder, in.Ticker)
	}
	if in.Shares <= 0 {
		return in, fmt.Errorf("%w: shares must be > 0", ErrInvalidOrder)
	}
	return in, nil
}
