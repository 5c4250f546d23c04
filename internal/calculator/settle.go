package calculator

import (
	"cmp"
	"slices"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

type position struct {
	id     string
	amount int64
}

// SimplifyBalanceTransactions proposes settlement transfers that bring every
// balance to zero.
//
// Algorithm:
//   - creditors (balance > 0) and debtors (balance < 0), each sorted by amount
//     descending, ties by participant ID
//   - greedy: match the current debtor with the current creditor for the smaller
//     of the two amounts, advance whichever reaches zero
//
// Applying the transfers changes each participant's net position by exactly
// minus their balance.
func SimplifyBalanceTransactions(balances models.BalancesByParticipant) []models.Transaction {
	var creditors, debtors []position
	for _, id := range models.SortedKeys(balances) {
		b := balances[id].Stats.Balance
		switch {
		case b > 0:
			creditors = append(creditors, position{id: id, amount: b})
		case b < 0:
			debtors = append(debtors, position{id: id, amount: -b})
		}
	}

	byAmountDesc := func(a, b position) int {
		if c := cmp.Compare(b.amount, a.amount); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	}
	slices.SortFunc(creditors, byAmountDesc)
	slices.SortFunc(debtors, byAmountDesc)

	var transactions []models.Transaction
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].amount, creditors[j].amount)

		transactions = append(transactions, models.Transaction{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}

	return transactions
}
