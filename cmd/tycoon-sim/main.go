package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := simOptions{}
	var verbose bool
	root := &cobra.Command{
		Use:          "tycoon-sim",
		Short:        "Run a headless seeded economy with scripted players",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			start := time.Now()
			res, err := simulate(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			printReport(res, time.Since(start))
			return nil
		},
	}
	root.Flags().Int64Var(&opts.Seed, "seed", 1, "market and strategy seed")
	root.Flags().IntVar(&opts.Weeks, "weeks", 520, "weeks to simulate")
	root.Flags().IntVar(&opts.Players, "players", 8, "scripted players")
	root.Flags().StringVar(&opts.Volatility, "volatility", "normal", "calm, normal or wild")
	root.Flags().BoolVar(&verbose, "verbose", false, "log every tick")

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printReport(res simResult, took time.Duration) {
	accent.Printf("\n== AFTER %d WEEKS ==\n", res.Weeks)
	fmt.Printf("%-6s %-10s %-38s %18s %-6s\n", "RANK", "STRATEGY", "PLAYER", "NET WORTH", "JAILED")
	for _, row := range res.Rows {
		jailed := ""
		if row.Jailed {
			jailed = danger.Sprint("yes")
		}
		worth := neutral.Sprint(row.NetWorth.StringFixed(2))
		if row.Rank == 1 {
			worth = success.Sprint(row.NetWorth.StringFixed(2))
		}
		fmt.Printf("%-6d %-10s %-38s %18s %-6s\n", row.Rank, res.Strategies[row.PlayerID], row.PlayerID, worth, jailed)
	}

	accent.Println("\n== LEDGER ==")
	printCounts(res.Actions)
	if len(res.Rejected) > 0 {
		accent.Println("\n== REJECTED ==")
		printCounts(res.Rejected)
	}
	if res.Faults > 0 {
		danger.Printf("\n%d player faults during ticks\n", res.Faults)
	}
	neutral.Printf("\nsimulated in %s\n", took.Round(time.Millisecond))
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-22s %d\n", k, counts[k])
	}
}
