package trading

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"autoswap/internal/hyperliquid"
	"autoswap/internal/observability"
)

// OrderClient submits one IOC order. Implemented by
// hyperliquid.ExchangeClient; tests use stubs.
type OrderClient interface {
	PlaceOrder(ctx context.Context, order hyperliquid.OrderRequest) (*hyperliquid.OrderStatus, error)
}

// Fill is the normalized outcome of an order. When the exchange
// response carried no fill detail, Quantity and AvgPrice echo the
// spec's nominal values and Estimated is set.
type Fill struct {
	Quantity  decimal.Decimal
	AvgPrice  decimal.Decimal
	Estimated bool
}

// Executor submits sized orders and normalizes the result. It never
// retries: a failed buy aborts the transaction.
type Executor struct {
	client OrderClient
	logger *log.Logger
}

// NewExecutor creates an executor.
func NewExecutor(client OrderClient, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{client: client, logger: logger}
}

// Execute submits the spec as an IOC limit order on the given spot
// asset and returns the realized (or estimated) fill.
func (e *Executor) Execute(ctx context.Context, spec *OrderSpec, assetID int) (*Fill, error) {
	req := hyperliquid.OrderRequest{
		Asset:      assetID,
		IsBuy:      spec.IsBuy,
		Size:       spec.Quantity.String(),
		LimitPrice: spec.LimitPrice.String(),
	}

	e.logger.Printf("submitting %s order: %s %s @ %s", side(spec.IsBuy), req.Size, spec.Coin, req.LimitPrice)

	status, err := e.client.PlaceOrder(ctx, req)
	if err != nil {
		observability.RecordOrder("error")
		return nil, fmt.Errorf("place order: %w", err)
	}
	observability.RecordOrder("ok")

	if status.Filled != nil {
		fill := &Fill{Quantity: spec.Quantity, AvgPrice: spec.LimitPrice}
		if qty, err := decimal.NewFromString(status.Filled.TotalSz); err == nil && qty.IsPositive() {
			fill.Quantity = qty
		}
		if px, err := decimal.NewFromString(status.Filled.AvgPx); err == nil && px.IsPositive() {
			fill.AvgPrice = px
		}
		e.logger.Printf("order filled: %s %s at avg %s", fill.Quantity, spec.Coin, fill.AvgPrice)
		return fill, nil
	}

	// No fill detail: report the sized order as a best-effort estimate.
	e.logger.Printf("order accepted without fill detail, estimating %s %s", spec.Quantity, spec.Coin)
	return &Fill{Quantity: spec.Quantity, AvgPrice: spec.LimitPrice, Estimated: true}, nil
}

func side(isBuy bool) string {
	if isBuy {
		return "BUY"
	}
	return "SELL"
}
