package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	PostTransaction(ctx context.Context, input usecase.PostTransactionInput) (*domain.Transaction, error)
	TransferFunds(ctx context.Context, input usecase.TransferFundsInput) (*domain.Transaction, error)
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, input usecase.ListTransactionsByAccountInput) ([]*domain.Transaction, error)
}

// LedgerHandler handles transaction, transfer and deposit HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// PostTransaction posts a balanced transaction.
func (h *LedgerHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := h.ledgerUC.PostTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to post transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Transfer creates a transfer between two accounts, optionally collecting
// a fee.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := h.ledgerUC.TransferFunds(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create transfer", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Deposit funds an account from the genesis account.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := h.ledgerUC.Deposit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create deposit", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// GetTransaction retrieves a transaction by ID.
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	tx, err := h.ledgerUC.GetTransaction(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// ListByAccount lists transactions touching an account.
func (h *LedgerHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	transactions, err := h.ledgerUC.ListTransactionsByAccount(r.Context(), usecase.ListTransactionsByAccountInput{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        int64(len(transactions)),
	})
}
