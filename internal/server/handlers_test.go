package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"autoswap/internal/domain"
	"autoswap/internal/forwarder"
)

type stubService struct {
	startMsg  string
	startErr  error
	startOpts forwarder.StartOptions

	stopMsg string

	status    *forwarder.Status
	statusErr error

	txs       []*domain.Transaction
	txsErr    error
	txsLimit  int
	manualTx  *domain.Transaction
	manualErr error

	manualAmount   decimal.Decimal
	manualSender   string
	manualCoin     string
	manualSlippage decimal.Decimal
}

func (s *stubService) StartMonitoring(ctx context.Context, opts forwarder.StartOptions) (string, error) {
	s.startOpts = opts
	return s.startMsg, s.startErr
}

func (s *stubService) StopMonitoring() string { return s.stopMsg }

func (s *stubService) Status(ctx context.Context) (*forwarder.Status, error) {
	return s.status, s.statusErr
}

func (s *stubService) Transactions(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	s.txsLimit = limit
	return s.txs, s.txsErr
}

func (s *stubService) Manual(ctx context.Context, amount decimal.Decimal, sender, targetCoin string, slippagePercent decimal.Decimal) (*domain.Transaction, error) {
	s.manualAmount = amount
	s.manualSender = sender
	s.manualCoin = targetCoin
	s.manualSlippage = slippagePercent
	return s.manualTx, s.manualErr
}

func doRequest(t *testing.T, svc Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *strings.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	} else {
		rdr = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	New(svc, nil).Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandleStatus(t *testing.T) {
	svc := &stubService{status: &forwarder.Status{
		Running: true,
		Address: "0xabc",
		Network: "mainnet",
	}}

	rec := doRequest(t, svc, http.MethodGet, "/hyperliquid/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeJSON[map[string]any](t, rec)
	if got["isMonitoring"] != true {
		t.Errorf("isMonitoring = %v, want true", got["isMonitoring"])
	}
	if got["walletAddress"] != "0xabc" {
		t.Errorf("walletAddress = %v, want 0xabc", got["walletAddress"])
	}
}

func TestHandleStatusError(t *testing.T) {
	svc := &stubService{statusErr: errors.New("store unavailable")}

	rec := doRequest(t, svc, http.MethodGet, "/hyperliquid/status", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want 500", rec.Code)
	}
}

func TestHandleStart(t *testing.T) {
	svc := &stubService{startMsg: "monitoring started"}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/start",
		`{"minOrderAmount": 2.5, "targetCoin": "PURR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[messageResponse](t, rec)
	if got.Message != "monitoring started" {
		t.Errorf("message = %q", got.Message)
	}
	if svc.startOpts.TargetCoin != "PURR" {
		t.Errorf("targetCoin = %q, want PURR", svc.startOpts.TargetCoin)
	}
	if svc.startOpts.MinOrderAmount == nil || !svc.startOpts.MinOrderAmount.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("minOrderAmount = %v, want 2.5", svc.startOpts.MinOrderAmount)
	}
}

func TestHandleStartEmptyBody(t *testing.T) {
	svc := &stubService{startMsg: "monitoring started"}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleStartMinOrderTooSmall(t *testing.T) {
	svc := &stubService{}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/start",
		`{"minOrderAmount": 0.001}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", rec.Code)
	}
	got := decodeJSON[errorResponse](t, rec)
	if !strings.Contains(got.Error, "0.01") {
		t.Errorf("error = %q, want mention of 0.01", got.Error)
	}
}

func TestHandleStartServiceError(t *testing.T) {
	svc := &stubService{startErr: forwarder.ErrAddressNotConfigured}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/start", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", rec.Code)
	}
}

func TestHandleStop(t *testing.T) {
	svc := &stubService{stopMsg: "monitoring stopped"}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeJSON[messageResponse](t, rec)
	if got.Message != "monitoring stopped" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestHandleTransactions(t *testing.T) {
	svc := &stubService{txs: []*domain.Transaction{
		{ID: "auto_2", Status: domain.StatusCompleted, OutputAmount: "1.9"},
		{ID: "auto_1", Status: domain.StatusFailed, Error: "amount below minimum"},
	}}

	rec := doRequest(t, svc, http.MethodGet, "/hyperliquid/transactions?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if svc.txsLimit != 2 {
		t.Errorf("limit = %d, want 2", svc.txsLimit)
	}
	got := decodeJSON[[]transactionResponse](t, rec)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "auto_2" || got[0].Error != "" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Error != "amount below minimum" {
		t.Errorf("second error = %q", got[1].Error)
	}
}

func TestHandleTransactionsBadLimit(t *testing.T) {
	for _, raw := range []string{"abc", "-1"} {
		rec := doRequest(t, &stubService{}, http.MethodGet, "/hyperliquid/transactions?limit="+raw, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%q: status code = %d, want 400", raw, rec.Code)
		}
	}
}

func TestHandleTransactionsEmpty(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodGet, "/hyperliquid/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeJSON[[]transactionResponse](t, rec)
	if got == nil || len(got) != 0 {
		t.Errorf("body = %v, want empty array", got)
	}
}

func TestHandleManualProcess(t *testing.T) {
	svc := &stubService{manualTx: &domain.Transaction{
		ID:           "manual_1",
		Status:       domain.StatusCompleted,
		OutputAmount: "1.9",
		Coin:         "HYPE",
	}}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/manual-process",
		`{"amount": 100, "senderAddress": "0xDEF", "slippagePercent": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[transactionResponse](t, rec)
	if got.ID != "manual_1" || got.OutputAmount != "1.9" {
		t.Errorf("response = %+v", got)
	}
	if !svc.manualAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount = %s, want 100", svc.manualAmount)
	}
	if svc.manualSender != "0xDEF" {
		t.Errorf("sender = %q", svc.manualSender)
	}
	if !svc.manualSlippage.Equal(decimal.NewFromInt(3)) {
		t.Errorf("slippage = %s, want 3", svc.manualSlippage)
	}
}

func TestHandleManualProcessValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"amount too small", `{"amount": 0.5, "senderAddress": "0xdef"}`, "amount must be at least 1"},
		{"missing sender", `{"amount": 100}`, "senderAddress is required"},
		{"slippage too small", `{"amount": 100, "senderAddress": "0xdef", "slippagePercent": 0.01}`, "slippagePercent must be at least 0.1"},
		{"bad json", `{`, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, &stubService{}, http.MethodPost, "/hyperliquid/manual-process", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status code = %d, want 400", rec.Code)
			}
			got := decodeJSON[errorResponse](t, rec)
			if got.Error != tc.want {
				t.Errorf("error = %q, want %q", got.Error, tc.want)
			}
		})
	}
}

func TestHandleManualProcessFailureMapping(t *testing.T) {
	cases := []struct {
		name     string
		txError  string
		wantCode int
	}{
		{"below minimum", "amount below minimum", http.StatusBadRequest},
		{"insufficient balance", "order failed: Insufficient balance", http.StatusBadRequest},
		{"transfer failure", "transfer failed after purchase, manual reconciliation required: timeout", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{manualTx: &domain.Transaction{
				ID:     "manual_f",
				Status: domain.StatusFailed,
				Error:  tc.txError,
			}}
			rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/manual-process",
				`{"amount": 100, "senderAddress": "0xdef"}`)
			if rec.Code != tc.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tc.wantCode)
			}
			got := decodeJSON[errorResponse](t, rec)
			if got.Error != tc.txError {
				t.Errorf("error = %q, want %q", got.Error, tc.txError)
			}
		})
	}
}

func TestHandleManualProcessServiceError(t *testing.T) {
	svc := &stubService{manualErr: errors.New("private key not configured")}

	rec := doRequest(t, svc, http.MethodPost, "/hyperliquid/manual-process",
		`{"amount": 100, "senderAddress": "0xdef"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want 500", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodGet, "/hyperliquid/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decodeJSON[map[string]string](t, rec)
	if got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
	if got["timestamp"] == "" {
		t.Error("timestamp missing")
	}
}
