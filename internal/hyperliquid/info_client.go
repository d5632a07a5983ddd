package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every info and exchange HTTP call.
const DefaultTimeout = 30 * time.Second

// spotAssetOffset converts a spot universe index into the asset id
// used in order submissions.
const spotAssetOffset = 10000

// InfoClient queries the read-only /info endpoint.
type InfoClient struct {
	baseURL string
	client  *http.Client
}

// InfoOption configures InfoClient.
type InfoOption func(*InfoClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) InfoOption {
	return func(c *InfoClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) InfoOption {
	return func(c *InfoClient) {
		c.client = client
	}
}

// NewInfoClient creates an info client for the network.
func NewInfoClient(testnet bool, opts ...InfoOption) *InfoClient {
	c := &InfoClient{
		baseURL: APIURL(testnet),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewInfoClientURL creates an info client against an explicit base URL.
// Used by tests.
func NewInfoClientURL(baseURL string, opts ...InfoOption) *InfoClient {
	c := &InfoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// post sends one typed info request and decodes the result.
func (c *InfoClient) post(ctx context.Context, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// SpotMeta fetches spot token and pair metadata.
func (c *InfoClient) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	var meta SpotMeta
	if err := c.post(ctx, map[string]string{"type": "spotMeta"}, &meta); err != nil {
		return nil, fmt.Errorf("spot meta: %w", err)
	}
	return &meta, nil
}

// AllMids fetches the current mid price for every market, keyed by
// market symbol, values as decimal strings.
func (c *InfoClient) AllMids(ctx context.Context) (map[string]string, error) {
	var mids map[string]string
	if err := c.post(ctx, map[string]string{"type": "allMids"}, &mids); err != nil {
		return nil, fmt.Errorf("all mids: %w", err)
	}
	return mids, nil
}

// Token finds a spot token by symbol, case-insensitive, accepting the
// "-SPOT" suffixed form as an alias.
func (m *SpotMeta) Token(symbol string) (SpotToken, bool) {
	upper := strings.ToUpper(symbol)
	spot := upper + "-SPOT"
	for _, t := range m.Tokens {
		name := strings.ToUpper(t.Name)
		if name == upper || name == spot {
			return t, true
		}
	}
	return SpotToken{}, false
}

// SizeDecimals returns the quantity granularity for a symbol. Unknown
// symbols fall back to 2 decimals.
func (m *SpotMeta) SizeDecimals(symbol string) int {
	if t, ok := m.Token(symbol); ok {
		return t.SzDecimals
	}
	return 2
}

// SpotAssetID resolves the asset id for order submission from the
// market symbol the mids table knows the pair by.
func (m *SpotMeta) SpotAssetID(marketSymbol string) (int, bool) {
	upper := strings.ToUpper(marketSymbol)
	for _, p := range m.Universe {
		if strings.ToUpper(p.Name) == upper {
			return spotAssetOffset + p.Index, true
		}
	}
	return 0, false
}

// ResolveMid finds a usable mid price for a symbol, trying the plain
// symbol, the "-SPOT" suffixed form and the "/USDC" pair form in that
// order. Returns the matched market symbol alongside the price.
func ResolveMid(mids map[string]string, symbol string) (market string, mid string, ok bool) {
	upper := strings.ToUpper(symbol)
	for _, candidate := range []string{upper, upper + "-SPOT", upper + "/USDC"} {
		if v, found := mids[candidate]; found && v != "" {
			return candidate, v, true
		}
	}
	return "", "", false
}
