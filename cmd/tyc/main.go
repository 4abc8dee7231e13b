package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cl "tycoon/internal/cli"
	"tycoon/internal/config"
	"tycoon/internal/game"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	serverURL := cfg.ServerURL

	root := &cobra.Command{
		Use:          "tyc",
		Short:        "Tycoon CLI game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", serverURL, "game server base URL")

	root.AddCommand(
		newPlayCmd(&serverURL),
		newReplayCmd(&serverURL),
		newStocksCmd(&serverURL),
		newPlayersCmd(&serverURL),
		newLeaderboardCmd(&serverURL),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(serverURL *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*serverURL), "/"))
}

func newPlayCmd(serverURL *string) *cobra.Command {
	var (
		quiet     bool
		noHistory bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the game and trade interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			var history *cl.History
			if !noHistory {
				h, err := cl.DefaultHistory()
				if err != nil {
					printWarn("History disabled: " + err.Error())
				} else {
					history = h
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			stream, err := newClient(serverURL).Connect(ctx)
			cancel()
			if err != nil {
				return err
			}
			defer stream.Close()

			first, err := stream.Await(cmd.Context(), game.EventInit)
			if err != nil {
				return fmt.Errorf("await init: %w", err)
			}
			self := playerIDOf(first)
			if err := renderFrame(first, self, quiet); err != nil {
				return err
			}
			printInfo(cl.Usage)

			done := make(chan struct{})
			go func() {
				defer close(done)
				for f := range stream.Frames() {
					if err := renderFrame(f, self, quiet); err != nil {
						printWarn("bad frame: " + err.Error())
					}
				}
				if err := stream.Err(); err != nil {
					printError("connection lost: " + err.Error())
				} else {
					printWarn("connection closed")
				}
			}()

			for {
				line, err := prompt()
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				command, err := cl.ParseLine(line)
				switch {
				case errors.Is(err, cl.ErrEmpty):
					continue
				case errors.Is(err, cl.ErrHelp):
					printInfo(cl.Usage)
					continue
				case errors.Is(err, cl.ErrQuit):
					printSuccess("Bye.")
					return nil
				case err != nil:
					printError(err.Error())
					continue
				}
				select {
				case <-done:
					return errors.New("disconnected from server")
				default:
				}
				if err := stream.Send(command); err != nil {
					return fmt.Errorf("send %s: %w", command.Type, err)
				}
				if history != nil {
					if err := history.Push(command); err != nil {
						printWarn("History write failed: " + err.Error())
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "hide weekly market and player updates")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record commands for replay")
	return cmd
}

func newReplayCmd(serverURL *string) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send recorded commands again as a new player",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := cl.DefaultHistory()
			if err != nil {
				return err
			}
			commands, err := history.Load()
			if err != nil {
				return err
			}
			if len(commands) == 0 {
				printInfo("Nothing recorded yet. Run `tyc play` first.")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			stream, err := newClient(serverURL).Connect(ctx)
			cancel()
			if err != nil {
				return err
			}
			defer stream.Close()

			first, err := stream.Await(cmd.Context(), game.EventInit)
			if err != nil {
				return fmt.Errorf("await init: %w", err)
			}
			self := playerIDOf(first)
			printSuccess(fmt.Sprintf("Replaying %d commands as %s", len(commands), self))

			go func() {
				for f := range stream.Frames() {
					_ = renderFrame(f, self, true)
				}
			}()

			for i, command := range commands {
				if err := stream.Send(command); err != nil {
					return fmt.Errorf("replay %d (%s): %w", i+1, command.Type, err)
				}
				time.Sleep(delay)
			}
			time.Sleep(delay)

			view, err := newClient(serverURL).Player(cmd.Context(), self)
			if err != nil {
				return err
			}
			renderPlayer(view)
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 250*time.Millisecond, "pause between replayed commands")
	return cmd
}

func newStocksCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "Show current stock prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(serverURL).Stocks(ctx)
			if err != nil {
				return err
			}
			renderStocks(out.Stocks)
			return nil
		},
	}
}

func newPlayersCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "players [id]",
		Short: "Show connected players, or one player in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(serverURL)
			if len(args) == 1 {
				view, err := client.Player(ctx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				renderPlayer(view)
				return nil
			}
			out, err := client.Players(ctx)
			if err != nil {
				return err
			}
			if len(out.Players) == 0 {
				printInfo("Nobody is playing right now.")
				return nil
			}
			fmt.Printf("%-38s %6s %16s %16s %-6s\n", "PLAYER", "WEEK", "CASH", "NET WORTH", "JAILED")
			for _, p := range out.Players {
				jailed := ""
				if p.Jailed {
					jailed = danger.Sprint("yes")
				}
				fmt.Printf("%-38s %6d %16s %16s %-6s\n", p.ID, p.WeeksPlayed, formatMoney(p.CashBalance), formatMoney(p.NetWorth), jailed)
			}
			return nil
		},
	}
}

func newLeaderboardCmd(serverURL *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show players ranked by net worth",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(serverURL).Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderLeaderboard(out.Rows, "leaderboard")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear recorded commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cl.DefaultHistory()
			if err != nil {
				return err
			}
			commands, err := h.Load()
			if err != nil {
				return err
			}
			if len(commands) == 0 {
				printInfo("History is empty.")
				return nil
			}
			for i, c := range commands {
				fmt.Printf("%4d  %-18s %v\n", i+1, c.Type, c.Payload)
			}
			return nil
		},
	}
	history.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete recorded commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cl.DefaultHistory()
			if err != nil {
				return err
			}
			if err := h.Clear(); err != nil {
				return err
			}
			printSuccess("History cleared.")
			return nil
		},
	})
	return history
}

func playerIDOf(f cl.Frame) string {
	data, err := decodeFrame[game.InitData](f)
	if err != nil {
		return ""
	}
	return data.Player.ID
}
