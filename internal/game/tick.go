package game

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Scheduler advances the whole economy one simulated week per tick. The
// per-player pass always runs before the market moves, so every valuation
// inside a tick uses the prices that were current when it started.
type Scheduler struct {
	svc   *Service
	ticks atomic.Uint64
}

type TickReport struct {
	Tick     uint64   `json:"tick"`
	Advanced int      `json:"advanced"`
	Retired  int      `json:"retired"`
	Released []string `json:"released,omitempty"`
	Faults   int      `json:"faults"`
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{svc: svc}
}

func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

func (s *Scheduler) Tick(ctx context.Context) TickReport {
	svc := s.svc
	report := TickReport{Tick: s.ticks.Add(1)}
	prices := svc.market.Prices()

	var box outbox
	var entries []JournalEntry
	svc.players.Each(func(p *Player) {
		step, err := advancePlayer(p, prices)
		if err != nil {
			report.Faults++
			svc.log.Error("tick player step failed", "tick", report.Tick, "player_id", p.ID, "err", err)
			return
		}
		switch {
		case step.retired:
			report.Retired++
			return
		case step.released:
			report.Released = append(report.Released, p.ID)
			box.add(p.ID, EventReleased, MessageData{Message: releasedMessage})
			entries = append(entries, JournalEntry{PlayerID: p.ID, Action: ActionRelease, Amount: step.fundPayout})
		}
		report.Advanced++
	})

	svc.market.Advance()

	box.flush(svc.notifier)
	svc.notifier.Broadcast(Notification{Type: EventStocksUpdate, Data: StocksUpdate{Stocks: svc.market.Stocks()}})
	svc.broadcastPlayers()
	svc.record(ctx, entries...)
	return report
}

type playerStep struct {
	retired    bool
	released   bool
	fundPayout decimal.Decimal
}

// advancePlayer runs one week for p under its lock. A panic is turned into
// an error so one bad record cannot stop the pass.
func advancePlayer(p *Player, prices PriceBook) (step playerStep, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v", r)
		}
	}()

	if p.WeeksPlayed >= LifetimeWeeks {
		step.retired = true
		return step, nil
	}
	// Counted first so a record that faults later in the step still ages
	// toward retirement.
	p.WeeksPlayed++
	step.released, step.fundPayout = p.serveWeek()
	p.accrueAssets()
	p.refresh(prices)
	return step, nil
}

// Run ticks every interval until ctx is cancelled and returns the number
// of ticks executed.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) uint64 {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.svc.log.Info("tick scheduler started", "tick_every", every.String())
	var n uint64
	for {
		select {
		case <-ctx.Done():
			s.svc.log.Info("tick scheduler stopped", "ticks", n)
			return n
		case <-ticker.C:
			start := time.Now()
			report := s.Tick(ctx)
			n++
			s.svc.log.Debug("tick complete",
				"tick", report.Tick,
				"advanced", report.Advanced,
				"retired", report.Retired,
				"released", len(report.Released),
				"faults", report.Faults,
				"took", time.Since(start).String(),
			)
		}
	}
}
