package game

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	LifetimeWeeks             = 2080 // 40 years
	JailSentenceWeeks         = 520  // 10 years
	InsiderSuspicionThreshold = 5
)

var (
	WeeklyAllowance       = decimal.NewFromInt(200)
	IndexFundWeeklyGrowth = decimal.RequireFromString("0.0015") // ~8% annual

	BusinessWeeklyAppreciation   = decimal.RequireFromString("0.002")
	RealEstateWeeklyAppreciation = decimal.RequireFromString("0.001")

	DefaultBusinessCost     = decimal.NewFromInt(10_000)
	DefaultBusinessRevenue  = decimal.NewFromInt(500)
	DefaultBusinessExpenses = decimal.NewFromInt(200)

	DefaultRealEstateCost    = decimal.NewFromInt(50_000)
	DefaultRentYield         = decimal.RequireFromString("0.0015")
	DefaultRealEstateVacancy = decimal.RequireFromString("0.1")

	minStockPrice = decimal.NewFromInt(1)
)

var (
	ErrUnknownTicker      = errors.New("unknown ticker")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("not enough shares")
	ErrJailed             = errors.New("you are jailed")
	ErrNotJailed          = errors.New("index fund only available while jailed")
	ErrNotPremium         = errors.New("premium feature")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidAsset       = errors.New("invalid asset spec")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPaymentDeclined    = errors.New("payment declined")
)

var tickerRE = regexp.MustCompile(`^[A-Z]{1,6}$`)

func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func ValidateTicker(ticker string) error {
	if !tickerRE.MatchString(ticker) {
		return ErrInvalidOrder
	}
	return nil
}

// Kind returns a stable machine-readable name for a domain error, or
// "internal" for anything else.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTicker):
		return "UnknownTicker"
	case errors.Is(err, ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, ErrInsufficientShares):
		return "InsufficientShares"
	case errors.Is(err, ErrJailed):
		return "Jailed"
	case errors.Is(err, ErrNotJailed):
		return "NotJailed"
	case errors.Is(err, ErrNotPremium):
		return "NotPremium"
	case errors.Is(err, ErrInvalidOrder):
		return "InvalidOrder"
	case errors.Is(err, ErrInvalidAsset):
		return "InvalidAsset"
	case errors.Is(err, ErrPlayerNotFound):
		return "PlayerNotFound"
	case errors.Is(err, ErrPaymentDeclined):
		return "PaymentDeclined"
	default:
		return "internal"
	}
}

func roundCents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
