package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"tycoon/internal/game"
	"tycoon/internal/journal"
	"tycoon/internal/payment"

	"github.com/shopspring/decimal"
)

var strategies = []string{"saver", "trader", "landlord", "crook"}

type simOptions struct {
	Seed       int64
	Weeks      int
	Players    int
	Volatility string
}

type simResult struct {
	Weeks      int
	Rows       []game.LeaderboardRow
	Strategies map[string]string
	Actions    map[string]int
	Rejected   map[string]int
	Faults     int
}

type bot struct {
	id       string
	strategy string
}

// simulate plays opts.Weeks weeks of the economy in-process. Every bot
// acts once per week before the tick, in join order.
func simulate(ctx context.Context, opts simOptions, logger *slog.Logger) (simResult, error) {
	if opts.Players <= 0 {
		return simResult{}, errors.New("players must be > 0")
	}
	if opts.Weeks <= 0 {
		return simResult{}, errors.New("weeks must be > 0")
	}
	if opts.Weeks > game.LifetimeWeeks {
		opts.Weeks = game.LifetimeWeeks
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	market := game.NewMarket(game.DefaultCatalog(), rand.New(rand.NewSource(opts.Seed)), opts.Volatility)
	svc := game.NewService(market, game.NewRegistry(), logger)
	ledger := &journal.Memory{}
	svc.SetJournal(ledger)
	svc.SetPayments(payment.NewAutoApprove(logger))
	scheduler := game.NewScheduler(svc)

	res := simResult{
		Strategies: make(map[string]string, opts.Players),
		Rejected:   make(map[string]int),
	}
	bots := make([]bot, 0, opts.Players)
	for i := 0; i < opts.Players; i++ {
		data := svc.Connect()
		b := bot{id: data.Player.ID, strategy: strategies[i%len(strategies)]}
		bots = append(bots, b)
		res.Strategies[b.id] = b.strategy
	}

	for week := 0; week < opts.Weeks; week++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for _, b := range bots {
			if err := act(ctx, svc, rng, b); err != nil {
				kind := game.Kind(err)
				if kind == "internal" {
					return res, fmt.Errorf("week %d player %s: %w", week, b.id, err)
				}
				res.Rejected[kind]++
			}
		}
		report := scheduler.Tick(ctx)
		res.Faults += report.Faults
		res.Weeks++
	}

	res.Rows = svc.Leaderboard(0)
	res.Actions = ledger.CountByAction()
	return res, nil
}

func act(ctx context.Context, svc *game.Service, rng *rand.Rand, b bot) error {
	me, err := svc.Player(b.id)
	if err != nil {
		return err
	}
	switch b.strategy {
	case "trader":
		return trade(ctx, svc, rng, me)
	case "landlord":
		if !me.IsPremium {
			_, err := svc.UpgradeToPremium(ctx, me.ID)
			return err
		}
		switch {
		case me.CashBalance.GreaterThanOrEqual(game.DefaultRealEstateCost):
			_, err := svc.BuyRealEstate(ctx, me.ID, game.AssetSpec{})
			return err
		case me.CashBalance.GreaterThanOrEqual(game.DefaultBusinessCost) && rng.Intn(2) == 0:
			_, err := svc.BuyBusiness(ctx, me.ID, game.AssetSpec{})
			return err
		}
	case "crook":
		if !me.IsPremium {
			_, err := svc.UpgradeToPremium(ctx, me.ID)
			return err
		}
		if me.Jailed {
			if !me.IndexFundEnabled {
				_, err := svc.ToggleIndexFund(ctx, me.ID, true)
				return err
			}
			return nil
		}
		if rng.Intn(8) == 0 {
			_, err := svc.UseInsiderInfo(ctx, me.ID)
			return err
		}
		return trade(ctx, svc, rng, me)
	}
	return nil
}

// trade buys with up to half the cash on hand, or sells half of a random
// holding.
func trade(ctx context.Context, svc *game.Service, rng *rand.Rand, me game.PlayerView) error {
	if me.Jailed {
		return nil
	}
	if len(me.Portfolio) > 0 && rng.Intn(3) == 0 {
		held := make([]string, 0, len(me.Portfolio))
		for t := range me.Portfolio {
			held = append(held, t)
		}
		sort.Strings(held)
		ticker := held[rng.Intn(len(held))]
		shares := me.Portfolio[ticker] / 2
		if shares == 0 {
			shares = me.Portfolio[ticker]
		}
		_, err := svc.SellStock(ctx, game.OrderInput{PlayerID: me.ID, Ticker: ticker, Shares: shares})
		return err
	}

	stocks := svc.Stocks()
	if len(stocks) == 0 {
		return nil
	}
	pick := stocks[rng.Intn(len(stocks))]
	budget := me.CashBalance.Div(decimal.NewFromInt(2))
	shares := budget.Div(pick.Price).IntPart()
	if shares <= 0 {
		return nil
	}
	_, err := svc.BuyStock(ctx, game.OrderInput{PlayerID: me.ID, Ticker: pick.Ticker, Shares: shares})
	return err
}
