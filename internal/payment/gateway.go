package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const PremiumProduct = "premium"

var ErrDeclined = errors.New("charge declined")

// HTTPGateway charges the premium upgrade against an external payment API.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type chargeRequest struct {
	CustomerID     string `json:"customer_id"`
	Product        string `json:"product"`
	IdempotencyKey string `json:"idempotency_key"`
}

type Charge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (g *HTTPGateway) GrantPremium(ctx context.Context, playerID string) error {
	payload := chargeRequest{
		CustomerID:     playerID,
		Product:        PremiumProduct,
		IdempotencyKey: uuid.NewString(),
	}
	var out Charge
	if err := g.postJSON(ctx, "/v1/charges", payload, &out); err != nil {
		return err
	}
	if !strings.EqualFold(out.Status, "succeeded") {
		reason := strings.TrimSpace(out.Reason)
		if reason == "" {
			reason = out.Status
		}
		return fmt.Errorf("%w: %s", ErrDeclined, reason)
	}
	return nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusPaymentRequired {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s", ErrDeclined, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("payment status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// AutoApprove grants every upgrade. It is the development gateway used
// when no payment URL is configured.
type AutoApprove struct {
	log *slog.Logger
}

func NewAutoApprove(logger *slog.Logger) *AutoApprove {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoApprove{log: logger}
}

func (a *AutoApprove) GrantPremium(ctx context.Context, playerID string) error {
	a.log.InfoContext(ctx, "premium auto-approved", "player_id", playerID)
	return nil
}
