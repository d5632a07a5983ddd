// Package hyperliquid implements the exchange-facing clients: the
// streaming ledger subscription, the info endpoint and the signed
// action submission endpoint.
package hyperliquid

import "encoding/json"

// API endpoints by network.
const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
	MainnetWSURL  = "wss://api.hyperliquid.xyz/ws"
	TestnetWSURL  = "wss://api.hyperliquid-testnet.xyz/ws"
)

// APIURL returns the REST base URL for the network.
func APIURL(testnet bool) string {
	if testnet {
		return TestnetAPIURL
	}
	return MainnetAPIURL
}

// WSURL returns the websocket URL for the network.
func WSURL(testnet bool) string {
	if testnet {
		return TestnetWSURL
	}
	return MainnetWSURL
}

// wsEnvelope is the outer frame of every inbound websocket message.
type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// subscribeMessage requests the non-funding ledger stream for a user.
type subscribeMessage struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// pingMessage is the application-level heartbeat. Hyperliquid expects
// a JSON message, not a websocket ping frame.
type pingMessage struct {
	Method string `json:"method"`
}

// LedgerBatch is one userNonFundingLedgerUpdates delivery. The updates
// array historically appeared under two field names; Updates() returns
// whichever is populated.
type LedgerBatch struct {
	IsSnapshot bool           `json:"isSnapshot"`
	User       string         `json:"user"`
	Raw        []LedgerUpdate `json:"updates"`
	RawLegacy  []LedgerUpdate `json:"nonFundingLedgerUpdates"`

	// Gen is the connection generation that delivered this batch,
	// stamped by the ws client. Not part of the wire format.
	Gen int64 `json:"-"`
}

// Updates returns the first non-empty updates array.
func (b *LedgerBatch) Updates() []LedgerUpdate {
	if len(b.Raw) > 0 {
		return b.Raw
	}
	return b.RawLegacy
}

// LedgerUpdate is a single timestamped, hash-identified ledger entry.
type LedgerUpdate struct {
	Time  int64       `json:"time"`
	Hash  string      `json:"hash"`
	Delta LedgerDelta `json:"delta"`
}

// LedgerDelta is the tagged variant payload. Only spotTransfer fields
// are decoded; other variants are identified by Type and ignored.
type LedgerDelta struct {
	Type        string `json:"type"`
	Token       string `json:"token,omitempty"`
	Amount      string `json:"amount,omitempty"`
	UsdcValue   string `json:"usdcValue,omitempty"`
	User        string `json:"user,omitempty"`
	Destination string `json:"destination,omitempty"`
	Fee         string `json:"fee,omitempty"`
	Nonce       int64  `json:"nonce,omitempty"`
}

// DeltaSpotTransfer is the only actionable delta variant.
const DeltaSpotTransfer = "spotTransfer"

// SpotMeta is the /info spotMeta response.
type SpotMeta struct {
	Tokens   []SpotToken `json:"tokens"`
	Universe []SpotPair  `json:"universe"`
}

// SpotToken describes one spot token.
type SpotToken struct {
	Name        string `json:"name"`
	Index       int    `json:"index"`
	TokenID     string `json:"tokenId"`
	SzDecimals  int    `json:"szDecimals"`
	WeiDecimals int    `json:"weiDecimals"`
}

// SpotPair describes one spot trading pair.
type SpotPair struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Tokens [2]int `json:"tokens"`
}

// OrderRequest is a single IOC limit order, SDK-shaped: symbol in,
// asset index resolved at submission time.
type OrderRequest struct {
	Asset      int    // spot asset id (10000 + universe index)
	IsBuy      bool
	Size       string // base asset quantity, decimal string
	LimitPrice string // decimal string
	ReduceOnly bool
}

// orderAction is the wire form of an order submission. Field order
// matters: the action hash is computed over the msgpack encoding.
type orderAction struct {
	Type     string      `msgpack:"type" json:"type"`
	Orders   []wireOrder `msgpack:"orders" json:"orders"`
	Grouping string      `msgpack:"grouping" json:"grouping"`
}

type wireOrder struct {
	Asset      int       `msgpack:"a" json:"a"`
	IsBuy      bool      `msgpack:"b" json:"b"`
	Price      string    `msgpack:"p" json:"p"`
	Size       string    `msgpack:"s" json:"s"`
	ReduceOnly bool      `msgpack:"r" json:"r"`
	Type       orderType `msgpack:"t" json:"t"`
}

type orderType struct {
	Limit limitType `msgpack:"limit" json:"limit"`
}

type limitType struct {
	Tif string `msgpack:"tif" json:"tif"`
}

// SpotSendAction is the user-signed transfer action. Token is
// "<SYMBOL>:<tokenId>"; time doubles as the request nonce.
type SpotSendAction struct {
	Type             string `json:"type"`
	HyperliquidChain string `json:"hyperliquidChain"`
	SignatureChainID string `json:"signatureChainId"`
	Destination      string `json:"destination"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	Time             int64  `json:"time"`
}

// ExchangeResponse is the /exchange reply envelope.
type ExchangeResponse struct {
	Status   string           `json:"status"`
	Response *exchangePayload `json:"response,omitempty"`
}

type exchangePayload struct {
	Type string           `json:"type"`
	Data *exchangeRspData `json:"data,omitempty"`

	// Error text arrives here on status != "ok" for some endpoints.
	Error string `json:"error,omitempty"`
}

type exchangeRspData struct {
	Statuses []OrderStatus `json:"statuses"`
}

// OrderStatus is the per-order outcome inside an order response.
type OrderStatus struct {
	Filled  *FilledStatus `json:"filled,omitempty"`
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Error string `json:"error,omitempty"`
}

// FilledStatus carries the realized fill detail.
type FilledStatus struct {
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
	Oid     int64  `json:"oid"`
}

// signedRequest is the envelope POSTed to /exchange.
type signedRequest struct {
	Action    any           `json:"action"`
	Nonce     int64         `json:"nonce"`
	Signature wireSignature `json:"signature"`
}

type wireSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}
