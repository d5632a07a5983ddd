package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"autoswap/internal/domain"
	"autoswap/internal/forwarder"
)

// Service is the operator surface the handlers need. Implemented by
// forwarder.Service; tests use stubs.
type Service interface {
	StartMonitoring(ctx context.Context, opts forwarder.StartOptions) (string, error)
	StopMonitoring() string
	Status(ctx context.Context) (*forwarder.Status, error)
	Transactions(ctx context.Context, limit int) ([]*domain.Transaction, error)
	Manual(ctx context.Context, amount decimal.Decimal, sender, targetCoin string, slippagePercent decimal.Decimal) (*domain.Transaction, error)
}

// handlerService only exists to keep the handlers off the exported type.
type handlerService struct {
	Service
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type transactionResponse struct {
	ID           string `json:"id"`
	CreatedAt    int64  `json:"createdAt"`
	From         string `json:"from"`
	To           string `json:"to"`
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount"`
	Coin         string `json:"coin"`
	EventHash    string `json:"eventHash"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

type startRequest struct {
	MinOrderAmount *float64 `json:"minOrderAmount,omitempty"`
	TargetCoin     string   `json:"targetCoin,omitempty"`
	Testnet        *bool    `json:"testnet,omitempty"`
}

type manualRequest struct {
	Amount          float64  `json:"amount"`
	SenderAddress   string   `json:"senderAddress"`
	TargetCoin      string   `json:"targetCoin,omitempty"`
	SlippagePercent *float64 `json:"slippagePercent,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := forwarder.StartOptions{TargetCoin: req.TargetCoin, Testnet: req.Testnet}
	if req.MinOrderAmount != nil {
		if *req.MinOrderAmount < 0.01 {
			s.writeError(w, http.StatusBadRequest, "minOrderAmount must be at least 0.01")
			return
		}
		minAmount := decimal.NewFromFloat(*req.MinOrderAmount)
		opts.MinOrderAmount = &minAmount
	}

	msg, err := s.service.StartMonitoring(r.Context(), opts)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: s.service.StopMonitoring()})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	txs, err := s.service.Transactions(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleManualProcess(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount < 1 {
		s.writeError(w, http.StatusBadRequest, "amount must be at least 1")
		return
	}
	if req.SenderAddress == "" {
		s.writeError(w, http.StatusBadRequest, "senderAddress is required")
		return
	}
	slippage := decimal.Zero
	if req.SlippagePercent != nil {
		if *req.SlippagePercent < 0.1 {
			s.writeError(w, http.StatusBadRequest, "slippagePercent must be at least 0.1")
			return
		}
		slippage = decimal.NewFromFloat(*req.SlippagePercent)
	}

	tx, err := s.service.Manual(r.Context(), decimal.NewFromFloat(req.Amount), req.SenderAddress, req.TargetCoin, slippage)
	if err != nil {
		s.writeError(w, manualErrorStatus(err.Error()), err.Error())
		return
	}
	if tx.Status == domain.StatusFailed {
		s.writeError(w, manualErrorStatus(tx.Error), tx.Error)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// manualErrorStatus maps pipeline failures to HTTP codes: operator
// mistakes (too small, no funds) are 400, everything else is 500.
func manualErrorStatus(message string) int {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "balance") || strings.Contains(lower, "minimum") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		CreatedAt:    tx.CreatedAt,
		From:         tx.From,
		To:           tx.To,
		InputAmount:  tx.InputAmount,
		OutputAmount: tx.OutputAmount,
		Coin:         tx.Coin,
		EventHash:    tx.EventHash,
		Status:       tx.Status,
		Error:        tx.Error,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
