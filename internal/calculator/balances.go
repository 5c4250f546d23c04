package calculator

import (
	"fmt"
	"log/slog"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// GetImpactOnBalanceForUser returns paid minus owed for one user on one expense.
// Positive: the user is out of pocket. Negative: the user benefited.
// Zero when the user appears in neither PaidBy nor Shares.
func GetImpactOnBalanceForUser(expense models.Expense, userID string) (int64, error) {
	p, err := parseExpense(expense)
	if err != nil {
		return 0, err
	}
	if len(p.payers) == 0 {
		slog.Warn("Expense has no payers, no balance impact", "expense_id", expense.ID)
		return 0, nil
	}
	return p.paidBy(userID) - p.unitShares()[userID], nil
}

// CalculateBalancesByParticipant computes a balance row for every participant
// in the roster over the given expenses.
//
// Algorithm:
//   - balance = Σ impact of each expense on the participant
//   - diffs/userOwes/owedToUser: pairwise stats against every other participant,
//     from the per-payer ExpenseInputs of all expenses
//   - visualRatio = balance / max |balance| over the snapshot
//
// Expenses without payers are skipped with a warning. A data-integrity error in
// any expense fails the whole computation.
func CalculateBalancesByParticipant(expenses []models.Expense, participants map[string]models.Participant) (models.BalancesByParticipant, error) {
	ids := models.SortedKeys(participants)

	balances := make(map[string]int64, len(ids))
	var inputs []ExpenseInput

	for _, expense := range expenses {
		p, err := parseExpense(expense)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate balances: %w", err)
		}
		if len(p.payers) == 0 {
			slog.Warn("Expense has no payers, excluded from balances", "expense_id", expense.ID)
			continue
		}

		shares := p.unitShares()
		for _, id := range ids {
			balances[id] += p.paidBy(id) - shares[id]
		}
		inputs = append(inputs, p.inputs()...)
	}

	result := make(models.BalancesByParticipant, len(ids))
	for _, id := range ids {
		stats := CalculateLogStatsOfUser(id, ids, inputs)
		stats.Balance = balances[id]
		result[id] = models.BalanceEntry{
			ParticipantID: id,
			Stats:         stats,
		}
	}
	applyVisualRatios(result)

	return result, nil
}

// MergeBalancesByParticipant sums any number of snapshots computed over
// disjoint sets of expenses. UserOwes, OwedToUser, Balance and every Diffs
// entry are added up (missing entries count as zero). Input visual ratios are
// discarded and recomputed once from the merged balances.
//
// The merge is associative and commutative. Inputs are not modified.
func MergeBalancesByParticipant(snapshots ...models.BalancesByParticipant) models.BalancesByParticipant {
	merged := make(models.BalancesByParticipant)

	for _, snapshot := range snapshots {
		for id, entry := range snapshot {
			acc, ok := merged[id]
			if !ok {
				acc = zeroEntry(id)
			}

			acc.Stats.UserOwes += entry.Stats.UserOwes
			acc.Stats.OwedToUser += entry.Stats.OwedToUser
			acc.Stats.Balance += entry.Stats.Balance
			for other, ls := range entry.Stats.Diffs {
				d := acc.Stats.Diffs[other]
				d.DiffUnsplitted += ls.DiffUnsplitted
				acc.Stats.Diffs[other] = d
			}

			merged[id] = acc
		}
	}

	applyVisualRatios(merged)
	return merged
}

// FillParticipants returns a copy of balances with an all-zero row added for
// every roster participant that has none.
func FillParticipants(balances models.BalancesByParticipant, participants map[string]models.Participant) models.BalancesByParticipant {
	filled := make(models.BalancesByParticipant, len(balances)+len(participants))
	for id, entry := range balances {
		filled[id] = entry
	}
	for id := range participants {
		if _, ok := filled[id]; !ok {
			filled[id] = zeroEntry(id)
		}
	}
	return filled
}

// MergePartyBalances merges per-chunk snapshots into the party-wide balances,
// guaranteeing a row for every known participant.
func MergePartyBalances(participants map[string]models.Participant, snapshots ...models.BalancesByParticipant) models.BalancesByParticipant {
	return FillParticipants(MergeBalancesByParticipant(snapshots...), participants)
}

func zeroEntry(id string) models.BalanceEntry {
	return models.BalanceEntry{
		ParticipantID: id,
		Stats: models.UserStats{
			Diffs: make(map[string]models.LogStats),
		},
	}
}

// applyVisualRatios sets every VisualRatio to balance / max |balance|,
// or 0 when all balances are zero.
func applyVisualRatios(balances models.BalancesByParticipant) {
	var maxAbs int64
	for _, entry := range balances {
		b := entry.Stats.Balance
		if b < 0 {
			b = -b
		}
		if b > maxAbs {
			maxAbs = b
		}
	}

	for id, entry := range balances {
		entry.VisualRatio = 0
		if maxAbs > 0 {
			entry.VisualRatio = float64(entry.Stats.Balance) / float64(maxAbs)
		}
		balances[id] = entry
	}
}
