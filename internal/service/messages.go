package service

import (
	"github.com/HorusGoul/trizum-sub001/internal/calculator"
	"github.com/HorusGoul/trizum-sub001/internal/models"
)

type CreatePartyRequest struct {
	Name         string               `json:"name"`
	Currency     string               `json:"currency,omitempty"`
	Participants []models.Participant `json:"participants"`
}

type CreatePartyResponse struct {
	Party models.Party `json:"party"`
}

type GetPartyRequest struct {
	PartyID string `json:"partyId"`
}

type GetPartyResponse struct {
	Party models.Party `json:"party"`
}

// CalculateSharesRequest previews the allocation of an expense without storing it.
type CalculateSharesRequest struct {
	Expense models.Expense `json:"expense"`
}

type CalculateSharesResponse struct {
	// Shares is what each participant owes overall.
	Shares map[string]int64 `json:"shares"`
	// Inputs is the per-payer breakdown.
	Inputs []calculator.ExpenseInput `json:"inputs"`
}

type AddExpenseRequest struct {
	PartyID string         `json:"partyId"`
	Expense models.Expense `json:"expense"`
}

type AddExpenseResponse struct {
	ExpenseID string `json:"expenseId"`
	ChunkID   string `json:"chunkId"`
}

type DeleteExpenseRequest struct {
	PartyID   string `json:"partyId"`
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct {
	ChunkID string `json:"chunkId"`
}

// ListExpensesRequest asks for the next Count chunks after the ones the caller
// already holds. Count defaults to 1.
type ListExpensesRequest struct {
	PartyID        string   `json:"partyId"`
	LoadedChunkIDs []string `json:"loadedChunkIds,omitempty"`
	Count          int      `json:"count,omitempty"`
}

// ListExpensesResponse carries the expenses of the newly loaded chunks only,
// newest chunk first, and the pagination state including them.
type ListExpensesResponse struct {
	Expenses   []models.Expense            `json:"expenses"`
	ChunkIDs   []string                    `json:"chunkIds"`
	Pagination models.ChunkPaginationState `json:"pagination"`
}

type GetBalancesRequest struct {
	PartyID string `json:"partyId"`
}

type GetBalancesResponse struct {
	Balances     models.BalancesByParticipant `json:"balances"`
	Transactions []models.Transaction         `json:"transactions"`
}
