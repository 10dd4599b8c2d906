package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

func TestPostTransactionRequest_ToUseCaseInput(t *testing.T) {
	payload := `{
		"description": "invoice 42",
		"postings": [
			{"account_id": "alice", "amount": "40.00", "currency": "USD", "direction": "CREDIT"},
			{"account_id": "bob", "amount": "40.00", "currency": "USD", "direction": "DEBIT"}
		]
	}`

	var req PostTransactionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("failed to unmarshal request: %v", err)
	}

	input := req.ToUseCaseInput()

	if input.Description != "invoice 42" {
		t.Fatalf("unexpected description: %s", input.Description)
	}
	if len(input.Postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(input.Postings))
	}
	if input.Postings[0].Direction != domain.Credit || input.Postings[1].Direction != domain.Debit {
		t.Fatalf("directions not mapped: %+v", input.Postings)
	}
	if !input.Postings[0].Amount.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("amount not preserved: %s", input.Postings[0].Amount)
	}
}

func TestCreateTransferRequest_ToUseCaseInput(t *testing.T) {
	req := CreateTransferRequest{
		SourceAccountID:      "alice",
		DestinationAccountID: "bob",
		Amount:               decimal.RequireFromString("50"),
		Currency:             "USD",
		FeeAccountID:         "fees",
	}

	input := req.ToUseCaseInput()

	if input.SourceAccountID != "alice" || input.DestinationAccountID != "bob" {
		t.Fatalf("accounts not mapped: %+v", input)
	}
	if input.FeeAccountID != "fees" {
		t.Fatalf("fee account not mapped: %+v", input)
	}
}
