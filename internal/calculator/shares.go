package calculator

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/big"
	"slices"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// ExpenseInput is the normalized allocation of one payer's part of an expense.
// PaidFor always sums exactly to Expense.
type ExpenseInput struct {
	PaidBy  string           `json:"paidBy"`
	Expense int64            `json:"expense"`
	PaidFor map[string]int64 `json:"paidFor"`
}

// unitShare is an (id, integer amount) pair. For Divide shares units is the weight.
type unitShare struct {
	id    string
	units int64
}

// parsedExpense is an expense whose amounts passed integrity validation.
// Every slice is sorted by participant ID.
type parsedExpense struct {
	id     string
	payers []unitShare
	exact  []unitShare
	divide []unitShare
	total  int64
}

func parseExpense(e models.Expense) (*parsedExpense, error) {
	p := &parsedExpense{id: e.ID}

	for _, id := range models.SortedKeys(e.PaidBy) {
		v := e.PaidBy[id]
		units, reason := toUnits(v)
		if reason != "" {
			return nil, &DataIntegrityError{ExpenseID: e.ID, ParticipantID: id, Field: "paidBy", Value: v, Reason: reason}
		}
		p.payers = append(p.payers, unitShare{id: id, units: units})
		p.total += units
	}

	for _, id := range models.SortedKeys(e.Shares) {
		share := e.Shares[id]
		units, reason := toUnits(share.Value)
		if reason != "" {
			return nil, &DataIntegrityError{ExpenseID: e.ID, ParticipantID: id, Field: "shares", Value: share.Value, Reason: reason}
		}
		switch share.Kind {
		case models.ShareExact:
			p.exact = append(p.exact, unitShare{id: id, units: units})
		case models.ShareDivide:
			if units < 0 {
				return nil, &DataIntegrityError{ExpenseID: e.ID, ParticipantID: id, Field: "shares", Value: share.Value, Reason: "negative divide weight"}
			}
			p.divide = append(p.divide, unitShare{id: id, units: units})
		default:
			return nil, &DataIntegrityError{ExpenseID: e.ID, ParticipantID: id, Field: "shares", Value: share.Value,
				Reason: fmt.Sprintf("unknown share kind %s", share.Kind)}
		}
	}

	return p, nil
}

func (p *parsedExpense) paidBy(id string) int64 {
	for _, payer := range p.payers {
		if payer.id == id {
			return payer.units
		}
	}
	return 0
}

func (p *parsedExpense) hasShares() bool {
	return len(p.exact) > 0 || len(p.divide) > 0
}

// inputs splits the expense into one ExpenseInput per payer. Exact shares are
// scaled by the payer's fraction of the total before the remainder is divided.
func (p *parsedExpense) inputs() []ExpenseInput {
	inputs := make([]ExpenseInput, 0, len(p.payers))
	for _, payer := range p.payers {
		exact := make([]unitShare, len(p.exact))
		for i, s := range p.exact {
			exact[i] = unitShare{id: s.id, units: mulDivRound(s.units, payer.units, p.total)}
		}
		inputs = append(inputs, ExpenseInput{
			PaidBy:  payer.id,
			Expense: payer.units,
			PaidFor: p.allocate(payer.units, exact, []unitShare{payer}),
		})
	}
	return inputs
}

// unitShares allocates the combined paid total. Exact shares are taken verbatim.
func (p *parsedExpense) unitShares() map[string]int64 {
	return p.allocate(p.total, p.exact, p.payers)
}

// allocate hands out amount: exact shares first, the remainder by divide weight,
// then reconciles rounding so the result sums exactly to amount.
//
// Without positive divide weights the remainder is reconciled across the exact
// shares; without any shares it stays with the payers (fallback).
func (p *parsedExpense) allocate(amount int64, exact []unitShare, fallback []unitShare) map[string]int64 {
	result := make(map[string]int64, len(exact)+len(p.divide)+len(fallback))

	left := amount
	for _, s := range exact {
		result[s.id] = s.units
		left -= s.units
	}

	var totalWeight int64
	for _, s := range p.divide {
		totalWeight += s.units
		result[s.id] = 0
	}

	switch {
	case totalWeight > 0:
		divided := make([]unitShare, len(p.divide))
		var sum int64
		for i, s := range p.divide {
			divided[i] = unitShare{id: s.id, units: mulDivRound(left, s.units, totalWeight)}
			sum += divided[i].units
		}
		distributeRemainder(divided, left-sum)
		for _, s := range divided {
			result[s.id] = s.units
		}
	case len(exact) > 0:
		if left != 0 {
			adjusted := slices.Clone(exact)
			distributeRemainder(adjusted, left)
			for _, s := range adjusted {
				result[s.id] = s.units
			}
		}
	default:
		for _, s := range fallback {
			result[s.id] += s.units
		}
	}

	return result
}

// distributeRemainder spreads diff across allocs one minor unit at a time,
// round-robin. Smallest allocations receive first when diff is positive,
// largest give first when it is negative; ties go by participant ID.
func distributeRemainder(allocs []unitShare, diff int64) {
	if diff == 0 || len(allocs) == 0 {
		return
	}

	order := make([]int, len(allocs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		byAmount := cmp.Compare(allocs[a].units, allocs[b].units)
		if diff < 0 {
			byAmount = -byAmount
		}
		if byAmount != 0 {
			return byAmount
		}
		return cmp.Compare(allocs[a].id, allocs[b].id)
	})

	step := int64(1)
	if diff < 0 {
		step = -1
	}
	n := int64(len(allocs))
	// Whole rounds first, then the partial round.
	rounds, rest := diff/n, diff%n
	for i, idx := range order {
		allocs[idx].units += rounds
		if int64(i) < rest*step {
			allocs[idx].units += step
		}
	}
}

var bigTwo = big.NewInt(2)

// mulDivRound returns round(a*b/c), halves rounded toward +inf, computed
// exactly. It returns 0 when c is 0.
func mulDivRound(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	if c < 0 {
		a, c = -a, -c
	}
	// floor((2ab + c) / 2c); big.Int.Div floors for a positive divisor.
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	num.Mul(num, bigTwo).Add(num, big.NewInt(c))
	den := new(big.Int).Mul(big.NewInt(c), bigTwo)
	return new(big.Int).Div(num, den).Int64()
}

// ExportIntoInput converts an expense into one ExpenseInput per payer.
//
// Every paidBy amount and share value must be an integer number of minor units;
// anything else returns a *DataIntegrityError. An expense without payers logs a
// warning and yields an empty slice.
func ExportIntoInput(expense models.Expense) ([]ExpenseInput, error) {
	p, err := parseExpense(expense)
	if err != nil {
		return nil, err
	}
	if len(p.payers) == 0 {
		slog.Warn("Expense has no payers, skipping allocation", "expense_id", expense.ID)
		return []ExpenseInput{}, nil
	}
	return p.inputs(), nil
}

// GetExpenseUnitShares returns what each participant ultimately owes for the
// expense, independent of who fronted the money. The result sums exactly to
// the paid total.
func GetExpenseUnitShares(expense models.Expense) (map[string]int64, error) {
	p, err := parseExpense(expense)
	if err != nil {
		return nil, err
	}
	if len(p.payers) == 0 {
		slog.Warn("Expense has no payers, skipping unit shares", "expense_id", expense.ID)
		return map[string]int64{}, nil
	}
	return p.unitShares(), nil
}

// ValidateExpense checks that the expense can be allocated without violating
// the integer and sum invariants. Writers call it before persisting.
func ValidateExpense(expense models.Expense) error {
	p, err := parseExpense(expense)
	if err != nil {
		return err
	}
	if len(p.payers) == 0 {
		return fmt.Errorf("expense %s has no payers", expense.ID)
	}
	if !p.hasShares() {
		return fmt.Errorf("expense %s has no shares", expense.ID)
	}
	return nil
}
