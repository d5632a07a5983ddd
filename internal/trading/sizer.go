// Package trading computes and executes the IOC spot orders that turn
// a USDC deposit into the target asset.
package trading

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"autoswap/internal/hyperliquid"
)

// DefaultPriceTickDecimals is the per-symbol price tick table. A zero
// entry is a valid tick of one whole unit, not "unconfigured".
var DefaultPriceTickDecimals = map[string]int{
	"HYPE": 3,
	"PUP":  5,
	"PURR": 5,
	"SOL":  2,
	"BTC":  0,
	"ETH":  1,
}

// OrderSpec is one computed order attempt. Derived per deposit, never
// persisted on its own.
type OrderSpec struct {
	Coin         string // base symbol, upper case
	Market       string // market symbol the mid was resolved under
	IsBuy        bool
	Quantity     decimal.Decimal
	LimitPrice   decimal.Decimal
	MidPrice     decimal.Decimal
	SizeDecimals int
}

// Sizer derives order quantity and limit price from the current mid,
// the asset's size granularity and the slippage tolerance.
type Sizer struct {
	tickDecimals map[string]int
}

// NewSizer creates a sizer. A nil table uses DefaultPriceTickDecimals.
func NewSizer(tickDecimals map[string]int) *Sizer {
	if tickDecimals == nil {
		tickDecimals = DefaultPriceTickDecimals
	}
	return &Sizer{tickDecimals: tickDecimals}
}

// Size computes the order for spending usdAmount on symbol at the
// given slippage. mids is the allMids table; sizeDecimals comes from
// spot metadata.
//
// The limit price is the mid shifted by the slippage (up for buys,
// down for sells) and rounded to the symbol's price tick when one is
// configured. The quantity is the usd amount divided by that limit
// price, floored to the size granularity, so the order notional never
// exceeds the deposit even at the worst accepted price.
func (s *Sizer) Size(symbol string, usdAmount decimal.Decimal, isBuy bool, slippagePercent decimal.Decimal, mids map[string]string, sizeDecimals int) (*OrderSpec, error) {
	coin := strings.ToUpper(symbol)

	market, midStr, ok := hyperliquid.ResolveMid(mids, coin)
	if !ok {
		return nil, fmt.Errorf("no price data found for %s", coin)
	}
	mid, err := decimal.NewFromString(midStr)
	if err != nil || !mid.IsPositive() {
		return nil, fmt.Errorf("unusable mid price %q for %s", midStr, coin)
	}

	slippage := slippagePercent.Div(decimal.NewFromInt(100))
	factor := decimal.NewFromInt(1).Add(slippage)
	if !isBuy {
		factor = decimal.NewFromInt(1).Sub(slippage)
	}

	limitPrice := mid.Mul(factor)
	if tickDec, configured := s.tickDecimals[coin]; configured {
		limitPrice = RoundToTick(limitPrice, tickDec)
	}
	if !limitPrice.IsPositive() {
		return nil, fmt.Errorf("limit price rounds to zero for %s", coin)
	}

	quantity := usdAmount.Div(limitPrice).Truncate(int32(sizeDecimals))
	if quantity.IsZero() {
		tick := decimal.New(1, -int32(sizeDecimals))
		return nil, fmt.Errorf("order quantity too small, minimum %s %s", tick.String(), coin)
	}

	return &OrderSpec{
		Coin:         coin,
		Market:       market,
		IsBuy:        isBuy,
		Quantity:     quantity,
		LimitPrice:   limitPrice,
		MidPrice:     mid,
		SizeDecimals: sizeDecimals,
	}, nil
}

// RoundToTick rounds price to the nearest multiple of 10^-tickDecimals.
func RoundToTick(price decimal.Decimal, tickDecimals int) decimal.Decimal {
	return price.Round(int32(tickDecimals))
}
