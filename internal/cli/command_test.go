package cli

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		typ     string
		payload map[string]any
	}{
		{line: "buy solc 10", typ: "buyStock", payload: map[string]any{"ticker": "SOLC", "shares": int64(10)}},
		{line: "  SELL NEUR 3 ", typ: "sellStock", payload: map[string]any{"ticker": "NEUR", "shares": int64(3)}},
		{line: "insider", typ: "useInsiderInfo"},
		{line: "fund on", typ: "toggleIndexFund", payload: map[string]any{"enabled": true}},
		{line: "fund OFF", typ: "toggleIndexFund", payload: map[string]any{"enabled": false}},
		{line: "business", typ: "buyBusiness", payload: map[string]any{}},
		{line: "business 2500 Taco Stand", typ: "buyBusiness", payload: map[string]any{"cost": "2500", "name": "Taco Stand"}},
		{line: "realestate 80000", typ: "buyRealEstate", payload: map[string]any{"price": "80000"}},
		{line: "realestate Beach House", typ: "buyRealEstate", payload: map[string]any{"name": "Beach House"}},
		{line: "premium", typ: "upgradeToPremium"},
	}
	for _, tc := range tests {
		cmd, err := ParseLine(tc.line)
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if cmd.Type != tc.typ {
			t.Fatalf("%q: type got %s want %s", tc.line, cmd.Type, tc.typ)
		}
		if len(cmd.Payload) != len(tc.payload) {
			t.Fatalf("%q: payload got %v want %v", tc.line, cmd.Payload, tc.payload)
		}
		for k, v := range tc.payload {
			if cmd.Payload[k] != v {
				t.Fatalf("%q: payload[%s] got %v want %v", tc.line, k, cmd.Payload[k], v)
			}
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	sentinels := map[string]error{
		"":     ErrEmpty,
		"   ":  ErrEmpty,
		"help": ErrHelp,
		"quit": ErrQuit,
		"exit": ErrQuit,
	}
	for line, want := range sentinels {
		if _, err := ParseLine(line); !errors.Is(err, want) {
			t.Fatalf("%q: got %v want %v", line, err, want)
		}
	}

	invalid := []string{"buy SOLC", "buy SOLC ten", "sell SOLC 0", "sell SOLC -2", "fund maybe", "business -5", "dance"}
	for _, line := range invalid {
		if _, err := ParseLine(line); err == nil {
			t.Fatalf("expected %q to fail", line)
		}
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "history.json"))

	got, err := h.Load()
	if err != nil || len(got) != 0 {
		t.Fatalf("empty load: %v %v", got, err)
	}
	buy, _ := ParseLine("buy SOLC 2")
	if err := h.Push(buy); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := h.Push(Command{Type: "useInsiderInfo"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	got, err = h.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Type != "buyStock" || got[0].Payload["ticker"] != "SOLC" || got[1].Type != "useInsiderInfo" {
		t.Fatalf("unexpected history %+v", got)
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := h.Load(); len(got) != 0 {
		t.Fatalf("history not cleared: %v", got)
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}
