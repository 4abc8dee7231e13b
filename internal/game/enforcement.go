package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	jailedMessage   = "You were caught abusing insider info! Your portfolio was liquidated and redistributed. You are jailed for 10 years."
	releasedMessage = "You are released from jail! Your index fund has matured."
)

// recordInsiderUse applies one use of insider info and reports whether the
// player has crossed the suspicion threshold.
func (p *Player) recordInsiderUse() (bool, error) {
	if !p.IsPremium {
		return false, fmt.Errorf("%w: insider info is available to premium players only", ErrNotPremium)
	}
	if p.Jailed {
		return false, fmt.Errorf("%w and cannot use insider info", ErrJailed)
	}
	p.InsiderUsage++
	return p.InsiderUsage >= InsiderSuspicionThreshold, nil
}

// jail performs the Free -> Jailed transition and returns the liquidated
// portfolio value. A player who is already jailed is left untouched.
func (p *Player) jail(prices PriceBook) (decimal.Decimal, bool) {
	if p.Jailed {
		return decimal.Zero, false
	}
	value := p.portfolioValue(prices)
	p.Portfolio = make(map[string]int64)
	p.Cash = decimal.Zero

	p.Jailed = true
	p.JailTimeLeft = JailSentenceWeeks
	p.InsiderUsage = 0
	p.IndexFundBalance = decimal.Zero
	p.IndexFundEnabled = false
	return value, true
}

func (p *Player) setIndexFund(enabled bool) error {
	if !p.Jailed {
		return ErrNotJailed
	}
	p.IndexFundEnabled = enabled
	return nil
}

// redistributionShare splits amount equally across n recipients. With no
// recipients the amount is destroyed and the share is zero.
func redistributionShare(amount decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(n)))
}

// serveWeek runs the allowance and jail bookkeeping for one week. On
// release it reports the index fund balance flushed into cash.
func (p *Player) serveWeek() (released bool, payout decimal.Decimal) {
	if !p.Jailed {
		p.Cash = p.Cash.Add(WeeklyAllowance)
		return false, decimal.Zero
	}
	if p.IndexFundEnabled {
		p.IndexFundBalance = p.IndexFundBalance.
			Mul(decimal.NewFromInt(1).Add(IndexFundWeeklyGrowth)).
			Add(WeeklyAllowance)
	} else {
		p.Cash = p.Cash.Add(WeeklyAllowance)
	}

	p.JailTimeLeft--
	if p.JailTimeLeft > 0 {
		return false, decimal.Zero
	}
	payout = p.IndexFundBalance
	p.Jailed = false
	p.JailTimeLeft = 0
	p.Cash = p.Cash.Add(payout)
	p.IndexFundBalance = decimal.Zero
	p.IndexFundEnabled = false
	return true, payout
}
