package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command is the client -> server frame.
type Command struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

var (
	ErrQuit  = errors.New("quit")
	ErrHelp  = errors.New("help")
	ErrEmpty = errors.New("empty line")
)

const Usage = `commands:
  buy <TICKER> <SHARES>        buy shares at the current price
  sell <TICKER> <SHARES>       sell shares at the current price
  insider                      use an insider tip (premium)
  fund on|off                  toggle the index fund while jailed
  business [COST] [NAME...]    build a business (premium)
  realestate [PRICE] [NAME...] buy a property (premium)
  premium                      upgrade to premium
  help                         show this list
  quit                         leave the game`

// ParseLine turns one line of REPL input into a command.
func ParseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	switch verb {
	case "buy", "sell":
		if len(args) != 2 {
			return Command{}, fmt.Errorf("usage: %s <TICKER> <SHARES>", verb)
		}
		shares, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || shares <= 0 {
			return Command{}, fmt.Errorf("shares must be a positive whole number, got %q", args[1])
		}
		typ := "buyStock"
		if verb == "sell" {
			typ = "sellStock"
		}
		return Command{Type: typ, Payload: map[string]any{
			"ticker": strings.ToUpper(args[0]),
			"shares": shares,
		}}, nil
	case "insider":
		return Command{Type: "useInsiderInfo"}, nil
	case "fund":
		if len(args) != 1 {
			return Command{}, errors.New("usage: fund on|off")
		}
		switch strings.ToLower(args[0]) {
		case "on":
			return Command{Type: "toggleIndexFund", Payload: map[string]any{"enabled": true}}, nil
		case "off":
			return Command{Type: "toggleIndexFund", Payload: map[string]any{"enabled": false}}, nil
		default:
			return Command{}, errors.New("usage: fund on|off")
		}
	case "business", "realestate":
		payload, err := assetPayload(verb, args)
		if err != nil {
			return Command{}, err
		}
		typ := "buyBusiness"
		if verb == "realestate" {
			typ = "buyRealEstate"
		}
		return Command{Type: typ, Payload: payload}, nil
	case "premium":
		return Command{Type: "upgradeToPremium"}, nil
	case "help", "?":
		return Command{}, ErrHelp
	case "quit", "exit":
		return Command{}, ErrQuit
	default:
		return Command{}, fmt.Errorf("unknown command %q (try help)", verb)
	}
}

func assetPayload(verb string, args []string) (map[string]any, error) {
	payload := map[string]any{}
	if len(args) == 0 {
		return payload, nil
	}
	key := "cost"
	if verb == "realestate" {
		key = "price"
	}
	if amount, err := strconv.ParseFloat(args[0], 64); err == nil {
		if amount <= 0 {
			return nil, fmt.Errorf("%s must be > 0", key)
		}
		payload[key] = args[0]
		args = args[1:]
	}
	if len(args) > 0 {
		payload["name"] = strings.Join(args, " ")
	}
	return payload, nil
}
