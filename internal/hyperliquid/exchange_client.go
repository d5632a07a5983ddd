package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrOrderFailed wraps a non-"ok" exchange response. The raw response
// body is kept for diagnostics.
type ErrOrderFailed struct {
	Raw string
}

func (e *ErrOrderFailed) Error() string {
	return fmt.Sprintf("order failed: %s", e.Raw)
}

// ErrTransferFailed wraps a non-"ok" transfer response.
type ErrTransferFailed struct {
	Reason string
}

func (e *ErrTransferFailed) Error() string {
	return fmt.Sprintf("transfer failed: %s", e.Reason)
}

// ExchangeClient submits signed actions to the /exchange endpoint.
type ExchangeClient struct {
	baseURL string
	client  *http.Client
	signer  *Signer
	testnet bool
}

// NewExchangeClient creates an exchange client for the network.
func NewExchangeClient(testnet bool, signer *Signer) *ExchangeClient {
	return &ExchangeClient{
		baseURL: APIURL(testnet),
		client:  &http.Client{Timeout: DefaultTimeout},
		signer:  signer,
		testnet: testnet,
	}
}

// NewExchangeClientURL creates an exchange client against an explicit
// base URL. Used by tests.
func NewExchangeClientURL(baseURL string, testnet bool, signer *Signer) *ExchangeClient {
	c := NewExchangeClient(testnet, signer)
	c.baseURL = baseURL
	return c
}

// Testnet reports which network the client targets.
func (c *ExchangeClient) Testnet() bool {
	return c.testnet
}

// PlaceOrder submits one immediate-or-cancel limit order. A non-"ok"
// status or per-order error is returned as *ErrOrderFailed carrying
// the raw response. No retries: a failed order is terminal.
func (c *ExchangeClient) PlaceOrder(ctx context.Context, order OrderRequest) (*OrderStatus, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("no signing key available")
	}

	action := orderAction{
		Type: "order",
		Orders: []wireOrder{{
			Asset:      order.Asset,
			IsBuy:      order.IsBuy,
			Price:      order.LimitPrice,
			Size:       order.Size,
			ReduceOnly: order.ReduceOnly,
			Type:       orderType{Limit: limitType{Tif: "Ioc"}},
		}},
		Grouping: "na",
	}

	nonce := time.Now().UnixMilli()
	sig, err := c.signer.SignL1Action(action, nonce, c.testnet)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	raw, resp, err := c.submit(ctx, signedRequest{Action: action, Nonce: nonce, Signature: sig})
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, &ErrOrderFailed{Raw: string(raw)}
	}

	if resp.Response != nil && resp.Response.Data != nil && len(resp.Response.Data.Statuses) > 0 {
		status := resp.Response.Data.Statuses[0]
		if status.Error != "" {
			return nil, &ErrOrderFailed{Raw: status.Error}
		}
		return &status, nil
	}

	// "ok" without fill detail: the caller estimates from the spec.
	return &OrderStatus{}, nil
}

// SpotSend submits a signed spot transfer. The action's millisecond
// timestamp doubles as the request nonce.
func (c *ExchangeClient) SpotSend(ctx context.Context, action SpotSendAction) error {
	if c.signer == nil {
		return fmt.Errorf("no signing key available")
	}

	sig, err := c.signer.SignSpotSend(action)
	if err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}

	raw, resp, err := c.submit(ctx, signedRequest{Action: action, Nonce: action.Time, Signature: sig})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		reason := string(raw)
		if resp.Response != nil && resp.Response.Error != "" {
			reason = resp.Response.Error
		}
		return &ErrTransferFailed{Reason: reason}
	}
	return nil
}

func (c *ExchangeClient) submit(ctx context.Context, req signedRequest) ([]byte, *ExchangeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exchange", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp ExchangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return raw, &resp, nil
}
