package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	cl "tycoon/internal/cli"
	"tycoon/internal/game"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func prompt() (string, error) {
	accent.Print("tyc> ")
	return stdinReader.ReadString('\n')
}

func renderStocks(stocks []game.Stock) {
	accent.Println("\n== STOCK MARKET ==")
	if len(stocks) == 0 {
		printInfo("No stocks listed.")
		return
	}
	fmt.Printf("%-8s %-16s %-12s %12s\n", "TICKER", "NAME", "SECTOR", "PRICE")
	for _, s := range stocks {
		fmt.Printf("%-8s %-16s %-12s %12s\n",
			s.Ticker,
			truncate(s.Name, 16),
			truncate(s.Sector, 12),
			formatMoney(s.Price),
		)
	}
	fmt.Println()
}

func renderPlayer(p game.PlayerView) {
	accent.Printf("\n== PLAYER %s ==\n", truncate(p.ID, 12))
	fmt.Printf("Cash:        %s\n", formatMoney(p.CashBalance))
	fmt.Printf("Net worth:   %s\n", formatMoney(p.NetWorth))
	fmt.Printf("Weeks:       %d / %d\n", p.WeeksPlayed, game.LifetimeWeeks)
	status := success.Sprint("free")
	if p.Jailed {
		status = danger.Sprintf("jailed (%d weeks left)", p.JailTimeLeft)
	}
	fmt.Printf("Status:      %s\n", status)
	if p.IsPremium {
		fmt.Printf("Premium:     %s (insider uses %d)\n", success.Sprint("yes"), p.InsiderUsage)
	}
	if p.Jailed || p.IndexFundEnabled || p.IndexFundBalance.IsPositive() {
		fmt.Printf("Index fund:  %s (enabled=%v)\n", formatMoney(p.IndexFundBalance), p.IndexFundEnabled)
	}
	if len(p.Portfolio) > 0 {
		tickers := make([]string, 0, len(p.Portfolio))
		for t := range p.Portfolio {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		parts := make([]string, 0, len(tickers))
		for _, t := range tickers {
			parts = append(parts, fmt.Sprintf("%s:%d", t, p.Portfolio[t]))
		}
		fmt.Printf("Portfolio:   %s\n", strings.Join(parts, " "))
	}
	for _, b := range p.Businesses {
		fmt.Printf("Business:    %-16s value %s profit %s/wk\n", nameOr(b.Name, "business"), formatMoney(b.Value), colorizeMoney(b.RevenuePerWeek.Sub(b.ExpensesPerWeek)))
	}
	for _, r := range p.RealEstates {
		fmt.Printf("Property:    %-16s value %s rent %s/wk\n", nameOr(r.Name, "property"), formatMoney(r.Value), formatMoney(r.RentPerWeek))
	}
	fmt.Println()
}

func renderLeaderboard(rows []game.LeaderboardRow, title string) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(title))
	if len(rows) == 0 {
		printInfo("No players yet.")
		return
	}
	fmt.Printf("%-6s %-38s %16s %-6s\n", "RANK", "PLAYER", "NET WORTH", "JAILED")
	for _, row := range rows {
		jailed := ""
		if row.Jailed {
			jailed = danger.Sprint("yes")
		}
		fmt.Printf("%-6d %-38s %16s %-6s\n", row.Rank, row.PlayerID, formatMoney(row.NetWorth), jailed)
	}
	fmt.Println()
}

// renderFrame prints one server frame. Periodic market frames are shown
// compactly; quiet suppresses them.
func renderFrame(f cl.Frame, self string, quiet bool) error {
	switch f.Type {
	case game.EventInit:
		data, err := decodeFrame[game.InitData](f)
		if err != nil {
			return err
		}
		printSuccess("Connected as " + data.Player.ID)
		renderStocks(data.Stocks)
		renderPlayer(data.Player)
	case game.EventTradeResult:
		res, err := decodeFrame[game.TradeResult](f)
		if err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Filled at %s for %s. Cash %s.", formatMoney(res.Price), formatMoney(res.Notional), formatMoney(res.Balance)))
	case game.EventError:
		printError("error: " + messageOf(f.Data))
	case game.EventJailed:
		printError(messageOf(f.Data))
	case game.EventReleased:
		printSuccess(messageOf(f.Data))
	case game.EventInsiderTip:
		warn.Println("tip: " + messageOf(f.Data))
	case game.EventIndexFundStatus:
		st, err := decodeFrame[game.IndexFundStatus](f)
		if err != nil {
			return err
		}
		printInfo(fmt.Sprintf("Index fund enabled: %v", st.Enabled))
	case game.EventPremiumStatus:
		printSuccess("Premium unlocked.")
	case game.EventBusinessBought:
		b, err := decodeFrame[game.Business](f)
		if err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Built %s for %s.", nameOr(b.Name, "a business"), formatMoney(b.Value)))
	case game.EventRealEstateBought:
		r, err := decodeFrame[game.RealEstate](f)
		if err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Bought %s for %s.", nameOr(r.Name, "a property"), formatMoney(r.Value)))
	case game.EventStocksUpdate:
		if quiet {
			return nil
		}
		upd, err := decodeFrame[game.StocksUpdate](f)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(upd.Stocks))
		for _, s := range upd.Stocks {
			parts = append(parts, s.Ticker+" "+s.Price.StringFixed(2))
		}
		neutral.Println("market: " + strings.Join(parts, " | "))
	case game.EventPlayersUpdate:
		if quiet {
			return nil
		}
		upd, err := decodeFrame[game.PlayersUpdate](f)
		if err != nil {
			return err
		}
		for _, p := range upd.Players {
			if p.ID == self {
				neutral.Printf("week %d: cash %s net worth %s\n", p.WeeksPlayed, formatMoney(p.CashBalance), formatMoney(p.NetWorth))
			}
		}
	default:
		printWarn("unhandled frame " + f.Type)
	}
	return nil
}

func decodeFrame[T any](f cl.Frame) (T, error) {
	var out T
	if err := json.Unmarshal(f.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", f.Type, err)
	}
	return out, nil
}

func messageOf(raw json.RawMessage) string {
	var m game.MessageData
	if err := json.Unmarshal(raw, &m); err != nil || m.Message == "" {
		return strings.TrimSpace(string(raw))
	}
	return m.Message
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func colorizeMoney(v decimal.Decimal) string {
	text := formatMoney(v)
	switch {
	case v.IsPositive():
		return success.Sprint("+" + text)
	case v.IsNegative():
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatMoney(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + comma(whole) + "." + frac
}

func comma(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
