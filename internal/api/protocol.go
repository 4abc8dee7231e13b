package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"tycoon/internal/game"
)

// Inbound command types.
const (
	cmdBuyStock         = "buyStock"
	cmdSellStock        = "sellStock"
	cmdUseInsiderInfo   = "useInsiderInfo"
	cmdToggleIndexFund  = "toggleIndexFund"
	cmdBuyBusiness      = "buyBusiness"
	cmdBuyRealEstate    = "buyRealEstate"
	cmdUpgradeToPremium = "upgradeToPremium"
)

var (
	errMalformed   = errors.New("malformed message")
	errUnknownType = errors.New("unknown message type")
	errRateLimited = errors.New("rate limited")
)

// Envelope is the client -> server frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type tradePayload struct {
	Ticker string `json:"ticker"`
	Shares int64  `json:"shares"`
}

type togglePayload struct {
	Enabled bool `json:"enabled"`
}

func decodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: type is required", errMalformed)
	}
	return env, nil
}

// decodePayload fills out from the envelope payload. A missing payload
// leaves out at its zero value.
func decodePayload(env Envelope, out any) error {
	raw := bytes.TrimSpace(env.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s payload: %v", errMalformed, env.Type, err)
	}
	return nil
}

func errorFrame(message string) game.Notification {
	return game.Notification{Type: game.EventError, Data: game.MessageData{Message: message}}
}

// errorMessage is the text sent to the client for err. Unclassified
// errors are not echoed.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, errMalformed), errors.Is(err, errUnknownType), errors.Is(err, errRateLimited):
		return err.Error()
	case game.Kind(err) == "internal":
		return "internal error"
	default:
		return err.Error()
	}
}
