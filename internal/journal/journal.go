package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tycoon/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the Postgres sink needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Postgres struct {
	db Execer
}

func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

const insertEntry = `
INSERT INTO ledger_journal (player_id, action, ticker, shares, amount, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (p *Postgres) Record(ctx context.Context, e game.JournalEntry) error {
	tag, err := p.db.Exec(ctx, insertEntry, e.PlayerID, e.Action, e.Ticker, e.Shares, e.Amount, e.At)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("journal %s: postgres %s: %s", e.Action, pgErr.Code, pgErr.Message)
		}
		return fmt.Errorf("journal %s: %w", e.Action, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("journal %s: inserted %d rows", e.Action, tag.RowsAffected())
	}
	return nil
}

// Log writes entries as structured log lines. Used when no database is
// configured.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (l *Log) Record(ctx context.Context, e game.JournalEntry) error {
	l.log.InfoContext(ctx, "ledger entry",
		"player_id", e.PlayerID,
		"action", e.Action,
		"ticker", e.Ticker,
		"shares", e.Shares,
		"amount", e.Amount.String(),
		"at", e.At,
	)
	return nil
}

// Memory keeps every entry in process. The headless simulator reads it
// back for its summary.
type Memory struct {
	mu      sync.Mutex
	entries []game.JournalEntry
}

func (m *Memory) Record(_ context.Context, e game.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Entries() []game.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.JournalEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// CountByAction tallies entries per action.
func (m *Memory) CountByAction() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, e := range m.entries {
		out[e.Action]++
	}
	return out
}
