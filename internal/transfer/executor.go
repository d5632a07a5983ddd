// Package transfer builds and submits the signed spotSend that forwards
// the purchased asset back to the depositor.
package transfer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"autoswap/internal/hyperliquid"
	"autoswap/internal/observability"
)

// DefaultTokenRegistry maps token symbols to the token ids required in
// the "<SYMBOL>:<tokenId>" composite transfer reference.
var DefaultTokenRegistry = map[string]string{
	"HYPE": "0x0d01dc56dcaaca66ad901c959b4011ec",
	"PUP":  "0x4b0374cc43f5bd8b1e9a32cbec1c97e0a6ad4bfc",
	"PURR": "0xc1fb593aeffbeb02f85e0308e9956a90",
	"USDC": "0x6d1e7cde53ba9467b783cb7c530ce054",
}

// Client submits one signed spotSend. Implemented by
// hyperliquid.ExchangeClient; tests use stubs.
type Client interface {
	SpotSend(ctx context.Context, action hyperliquid.SpotSendAction) error
	Testnet() bool
}

// MetaSource resolves token ids for symbols missing from the registry.
type MetaSource interface {
	SpotMeta(ctx context.Context) (*hyperliquid.SpotMeta, error)
}

// Executor constructs, signs and submits forward transfers.
type Executor struct {
	client   Client
	meta     MetaSource
	registry map[string]string
	logger   *log.Logger
}

// NewExecutor creates a transfer executor. A nil registry uses
// DefaultTokenRegistry; meta may be nil to disable the fallback.
func NewExecutor(client Client, meta MetaSource, registry map[string]string, logger *log.Logger) *Executor {
	if registry == nil {
		registry = DefaultTokenRegistry
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{client: client, meta: meta, registry: registry, logger: logger}
}

// Send transfers amount of tokenSymbol to destination. The action's
// millisecond timestamp serves as both its time field and the request
// nonce.
func (e *Executor) Send(ctx context.Context, tokenSymbol, destination, amount string) error {
	symbol := strings.ToUpper(tokenSymbol)

	tokenID, err := e.resolveTokenID(ctx, symbol)
	if err != nil {
		observability.RecordTransfer("error")
		return err
	}

	chain := "Mainnet"
	if e.client.Testnet() {
		chain = "Testnet"
	}

	action := hyperliquid.SpotSendAction{
		Type:             "spotSend",
		HyperliquidChain: chain,
		SignatureChainID: hyperliquid.SignatureChainID,
		Destination:      strings.ToLower(destination),
		Token:            fmt.Sprintf("%s:%s", symbol, tokenID),
		Amount:           amount,
		Time:             time.Now().UnixMilli(),
	}

	e.logger.Printf("transferring %s %s to %s", amount, symbol, action.Destination)

	if err := e.client.SpotSend(ctx, action); err != nil {
		observability.RecordTransfer("error")
		return err
	}
	observability.RecordTransfer("ok")
	return nil
}

// resolveTokenID checks the static registry first and falls back to
// spot metadata, which also carries token ids.
func (e *Executor) resolveTokenID(ctx context.Context, symbol string) (string, error) {
	if id, ok := e.registry[symbol]; ok {
		return id, nil
	}
	if e.meta != nil {
		meta, err := e.meta.SpotMeta(ctx)
		if err == nil {
			if token, ok := meta.Token(symbol); ok && token.TokenID != "" {
				return token.TokenID, nil
			}
		}
	}
	return "", fmt.Errorf("token %s not configured for transfer", symbol)
}
