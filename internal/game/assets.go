package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Business struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	Name            string          `json:"name,omitempty"`
	Value           decimal.Decimal `json:"value"`
	RevenuePerWeek  decimal.Decimal `json:"revenuePerWeek"`
	ExpensesPerWeek decimal.Decimal `json:"expensesPerWeek"`
}

type RealEstate struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Name        string          `json:"name,omitempty"`
	Value       decimal.Decimal `json:"value"`
	RentPerWeek decimal.Decimal `json:"rentPerWeek"`
	VacancyRate decimal.Decimal `json:"vacancyRate"`
}

// AssetSpec is the purchase payload for both asset kinds. Unset fields
// fall back to the kind's defaults; Price is accepted as an alias of Cost
// for real estate.
type AssetSpec struct {
	Name            string              `json:"name"`
	Cost            decimal.NullDecimal `json:"cost"`
	Price           decimal.NullDecimal `json:"price"`
	RevenuePerWeek  decimal.NullDecimal `json:"revenuePerWeek"`
	ExpensesPerWeek decimal.NullDecimal `json:"expensesPerWeek"`
	RentPerWeek     decimal.NullDecimal `json:"rentPerWeek"`
	VacancyRate     decimal.NullDecimal `json:"vacancyRate"`
}

func orDefault(v decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return fallback
}

func (s AssetSpec) businessCost() decimal.Decimal {
	return orDefault(s.Cost, DefaultBusinessCost)
}

func (s AssetSpec) realEstateCost() decimal.Decimal {
	if s.Price.Valid {
		return s.Price.Decimal
	}
	return orDefault(s.Cost, DefaultRealEstateCost)
}

func newBusiness(ownerID string, spec AssetSpec) (*Business, error) {
	b := &Business{
		ID:              "bus_" + uuid.NewString(),
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(spec.Name),
		Value:           spec.businessCost(),
		RevenuePerWeek:  orDefault(spec.RevenuePerWeek, DefaultBusinessRevenue),
		ExpensesPerWeek: orDefault(spec.ExpensesPerWeek, DefaultBusinessExpenses),
	}
	if !b.Value.IsPositive() {
		return nil, fmt.Errorf("%w: cost must be > 0", ErrInvalidAsset)
	}
	if b.RevenuePerWeek.IsNegative() || b.ExpensesPerWeek.IsNegative() {
		return nil, fmt.Errorf("%w: revenue and expenses must be >= 0", ErrInvalidAsset)
	}
	return b, nil
}

func newRealEstate(ownerID string, spec AssetSpec) (*RealEstate, error) {
	cost := spec.realEstateCost()
	r := &RealEstate{
		ID:          "re_" + uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(spec.Name),
		Value:       cost,
		RentPerWeek: orDefault(spec.RentPerWeek, cost.Mul(DefaultRentYield)),
		VacancyRate: orDefault(spec.VacancyRate, DefaultRealEstateVacancy),
	}
	if !r.Value.IsPositive() {
		return nil, fmt.Errorf("%w: price must be > 0", ErrInvalidAsset)
	}
	if r.RentPerWeek.IsNegative() {
		return nil, fmt.Errorf("%w: rent must be >= 0", ErrInvalidAsset)
	}
	if r.VacancyRate.IsNegative() || r.VacancyRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: vacancy rate must be within [0, 1]", ErrInvalidAsset)
	}
	return r, nil
}

func (b *Business) weeklyProfit() decimal.Decimal {
	return b.RevenuePerWeek.Sub(b.ExpensesPerWeek)
}

func (r *RealEstate) weeklyRent() decimal.Decimal {
	return r.RentPerWeek.Mul(decimal.NewFromInt(1).Sub(r.VacancyRate))
}

// accrueAssets pays one week of asset income into cash and appreciates
// every holding. Losses beyond available cash are written off so cash
// never goes negative.
func (p *Player) accrueAssets() {
	for _, b := range p.Businesses {
		p.Cash = p.Cash.Add(b.weeklyProfit())
		b.Value = b.Value.Mul(decimal.NewFromInt(1).Add(BusinessWeeklyAppreciation))
	}
	for _, r := range p.RealEstates {
		p.Cash = p.Cash.Add(r.weeklyRent())
		r.Value = r.Value.Mul(decimal.NewFromInt(1).Add(RealEstateWeeklyAppreciation))
	}
	if p.Cash.IsNegative() {
		p.Cash = decimal.Zero
	}
}

func (p *Player) purchaseBusiness(spec AssetSpec) (*Business, error) {
	if !p.IsPremium {
		return nil, fmt.Errorf("%w: business building requires premium", ErrNotPremium)
	}
	b, err := newBusiness(p.ID, spec)
	if err != nil {
		return nil, err
	}
	if b.Value.GreaterThan(p.Cash) {
		return nil, fmt.Errorf("%w for business", ErrInsufficientFunds)
	}
	p.Cash = p.Cash.Sub(b.Value)
	p.Businesses[b.ID] = b
	return b, nil
}

func (p *Player) purchaseRealEstate(spec AssetSpec) (*RealEstate, error) {
	if !p.IsPremium {
		return nil, fmt.Errorf("%w: real estate investing requires premium", ErrNotPremium)
	}
	r, err := newRealEstate(p.ID, spec)
	if err != nil {
		return nil, err
	}
	if r.Value.GreaterThan(p.Cash) {
		return nil, fmt.Errorf("%w for real estate", ErrInsufficientFunds)
	}
	p.Cash = p.Cash.Sub(r.Value)
	p.RealEstates[r.ID] = r
	return r, nil
}
