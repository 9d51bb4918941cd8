package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/police-portal/platform/internal/shared/config"
	"github.com/police-portal/platform/internal/shared/types"
)

// ChargeRequest is the payload lodged with the payment gateway
type ChargeRequest struct {
	PaymentID   types.ID `json:"payment_id"`
	Kind        Kind     `json:"kind"`
	Amount      int64    `json:"amount"`
	MerchantID  string   `json:"merchant_id"`
	CallbackURL string   `json:"callback_url,omitempty"`
}

// Gateway lodges payment requests with the external provider
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}

// HTTPGateway talks to the treasury payment gateway over HTTP
type HTTPGateway struct {
	client *http.Client
	cfg    config.GatewayConfig
}

// NewHTTPGateway creates a gateway client
func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	return &HTTPGateway{
		client: &http.Client{Timeout: 15 * time.Second},
		cfg:    cfg,
	}
}

type chargeResponse struct {
	Reference string `json:"reference"`
}

// Charge lodges the request and returns the gateway reference
func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	req.MerchantID = g.cfg.MerchantID
	req.CallbackURL = g.cfg.CallbackURL

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL+"/payments", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("gateway rejected the charge: status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return out.Reference, nil
}

// Ensure HTTPGateway implements Gateway
var _ Gateway = (*HTTPGateway)(nil)
