package calculator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

func sumUnits(m map[string]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

func TestExportIntoInput(t *testing.T) {
	tests := []struct {
		name    string
		expense models.Expense
		want    []ExpenseInput
	}{
		{
			name: "exact share plus three-way divide",
			expense: models.Expense{
				ID:     "e1",
				PaidBy: map[string]float64{"user1": 1000},
				Shares: map[string]models.ExpenseShare{
					"user1": models.Exact(800),
					"user2": models.Divide(1),
					"user3": models.Divide(1),
					"user4": models.Divide(1),
				},
			},
			want: []ExpenseInput{{
				PaidBy:  "user1",
				Expense: 1000,
				PaidFor: map[string]int64{"user1": 800, "user2": 66, "user3": 67, "user4": 67},
			}},
		},
		{
			name: "single participant takes everything",
			expense: models.Expense{
				ID:     "e2",
				PaidBy: map[string]float64{"alice": 4599},
				Shares: map[string]models.ExpenseShare{"alice": models.Divide(1)},
			},
			want: []ExpenseInput{{
				PaidBy:  "alice",
				Expense: 4599,
				PaidFor: map[string]int64{"alice": 4599},
			}},
		},
		{
			name: "two payers split exact share by their fraction",
			expense: models.Expense{
				ID:     "e3",
				PaidBy: map[string]float64{"alice": 3000, "bob": 1000},
				Shares: map[string]models.ExpenseShare{
					"alice": models.Exact(2000),
					"bob":   models.Divide(1),
					"carol": models.Divide(1),
				},
			},
			want: []ExpenseInput{
				{PaidBy: "alice", Expense: 3000, PaidFor: map[string]int64{"alice": 1500, "bob": 750, "carol": 750}},
				{PaidBy: "bob", Expense: 1000, PaidFor: map[string]int64{"alice": 500, "bob": 250, "carol": 250}},
			},
		},
		{
			name: "weighted divide",
			expense: models.Expense{
				ID:     "e4",
				PaidBy: map[string]float64{"alice": 1000},
				Shares: map[string]models.ExpenseShare{
					"alice": models.Divide(2),
					"bob":   models.Divide(1),
				},
			},
			want: []ExpenseInput{{
				PaidBy:  "alice",
				Expense: 1000,
				PaidFor: map[string]int64{"alice": 667, "bob": 333},
			}},
		},
		{
			name: "no shares keeps the amount with the payer",
			expense: models.Expense{
				ID:     "e5",
				PaidBy: map[string]float64{"alice": 250},
			},
			want: []ExpenseInput{{
				PaidBy:  "alice",
				Expense: 250,
				PaidFor: map[string]int64{"alice": 250},
			}},
		},
		{
			name: "exact shares below total absorb the leftover",
			expense: models.Expense{
				ID:     "e6",
				PaidBy: map[string]float64{"alice": 1003},
				Shares: map[string]models.ExpenseShare{
					"alice": models.Exact(500),
					"bob":   models.Exact(500),
				},
			},
			want: []ExpenseInput{{
				PaidBy:  "alice",
				Expense: 1003,
				PaidFor: map[string]int64{"alice": 502, "bob": 501},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExportIntoInput(tt.expense)
			if err != nil {
				t.Fatalf("ExportIntoInput() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExportIntoInput() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportIntoInput_NoPayers(t *testing.T) {
	got, err := ExportIntoInput(models.Expense{
		ID:     "empty",
		Shares: map[string]models.ExpenseShare{"alice": models.Divide(1)},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestExportIntoInput_DataIntegrity(t *testing.T) {
	tests := []struct {
		name        string
		expense     models.Expense
		participant string
		field       string
	}{
		{
			name: "fractional paidBy",
			expense: models.Expense{
				ID:     "bad-paid",
				PaidBy: map[string]float64{"alice": 10.5},
				Shares: map[string]models.ExpenseShare{"alice": models.Divide(1)},
			},
			participant: "alice",
			field:       "paidBy",
		},
		{
			name: "fractional exact share",
			expense: models.Expense{
				ID:     "bad-exact",
				PaidBy: map[string]float64{"alice": 100},
				Shares: map[string]models.ExpenseShare{"bob": models.Exact(33.3)},
			},
			participant: "bob",
			field:       "shares",
		},
		{
			name: "fractional divide weight",
			expense: models.Expense{
				ID:     "bad-weight",
				PaidBy: map[string]float64{"alice": 100},
				Shares: map[string]models.ExpenseShare{"carol": models.Divide(0.5)},
			},
			participant: "carol",
			field:       "shares",
		},
		{
			name: "NaN amount",
			expense: models.Expense{
				ID:     "bad-nan",
				PaidBy: map[string]float64{"dave": math.NaN()},
			},
			participant: "dave",
			field:       "paidBy",
		},
		{
			name: "unknown share kind",
			expense: models.Expense{
				ID:     "bad-kind",
				PaidBy: map[string]float64{"alice": 100},
				Shares: map[string]models.ExpenseShare{"erin": {Kind: 9, Value: 1}},
			},
			participant: "erin",
			field:       "shares",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExportIntoInput(tt.expense)
			if !errors.Is(err, ErrDataIntegrity) {
				t.Fatalf("expected ErrDataIntegrity, got %v", err)
			}
			var integrityErr *DataIntegrityError
			if !errors.As(err, &integrityErr) {
				t.Fatalf("expected *DataIntegrityError, got %T", err)
			}
			if integrityErr.ExpenseID != tt.expense.ID {
				t.Errorf("ExpenseID = %q, want %q", integrityErr.ExpenseID, tt.expense.ID)
			}
			if integrityErr.ParticipantID != tt.participant {
				t.Errorf("ParticipantID = %q, want %q", integrityErr.ParticipantID, tt.participant)
			}
			if integrityErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", integrityErr.Field, tt.field)
			}

			if _, err := GetExpenseUnitShares(tt.expense); !errors.Is(err, ErrDataIntegrity) {
				t.Errorf("GetExpenseUnitShares: expected ErrDataIntegrity, got %v", err)
			}
		})
	}
}

func TestGetExpenseUnitShares(t *testing.T) {
	tests := []struct {
		name    string
		expense models.Expense
		want    map[string]int64
	}{
		{
			name: "three-way split of 100",
			expense: models.Expense{
				PaidBy: map[string]float64{"alice": 100},
				Shares: map[string]models.ExpenseShare{
					"alice": models.Divide(1),
					"bob":   models.Divide(1),
					"carol": models.Divide(1),
				},
			},
			want: map[string]int64{"alice": 34, "bob": 33, "carol": 33},
		},
		{
			name: "exact reimbursement",
			expense: models.Expense{
				PaidBy: map[string]float64{"user1": 28942},
				Shares: map[string]models.ExpenseShare{"user2": models.Exact(28942)},
			},
			want: map[string]int64{"user2": 28942},
		},
		{
			name: "multiple payers use combined total",
			expense: models.Expense{
				PaidBy: map[string]float64{"alice": 700, "bob": 300},
				Shares: map[string]models.ExpenseShare{
					"alice": models.Exact(100),
					"bob":   models.Divide(1),
					"carol": models.Divide(2),
				},
			},
			want: map[string]int64{"alice": 100, "bob": 300, "carol": 600},
		},
		{
			name: "zero weights fall back to payers",
			expense: models.Expense{
				PaidBy: map[string]float64{"alice": 500},
				Shares: map[string]models.ExpenseShare{"bob": models.Divide(0)},
			},
			want: map[string]int64{"alice": 500, "bob": 0},
		},
		{
			name:    "no payers",
			expense: models.Expense{Shares: map[string]models.ExpenseShare{"bob": models.Exact(5)}},
			want:    map[string]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetExpenseUnitShares(tt.expense)
			if err != nil {
				t.Fatalf("GetExpenseUnitShares() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GetExpenseUnitShares() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var testParticipants = []string{"alice", "bob", "carol", "dave", "erin", "frank"}

func randomExpense(r *rand.Rand, id string) models.Expense {
	e := models.Expense{
		ID:     id,
		PaidBy: make(map[string]float64),
		Shares: make(map[string]models.ExpenseShare),
	}
	perm := r.Perm(len(testParticipants))
	for _, i := range perm[:1+r.IntN(3)] {
		e.PaidBy[testParticipants[i]] = float64(r.IntN(100000))
	}
	for _, i := range perm[:1+r.IntN(len(perm))] {
		if r.IntN(3) == 0 {
			e.Shares[testParticipants[i]] = models.Exact(float64(r.IntN(20000)))
		} else {
			e.Shares[testParticipants[i]] = models.Divide(float64(r.IntN(5)))
		}
	}
	return e
}

func TestAllocationInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 2000; i++ {
		e := randomExpense(r, fmt.Sprintf("e%d", i))

		var paid int64
		for _, v := range e.PaidBy {
			paid += int64(v)
		}

		inputs, err := ExportIntoInput(e)
		if err != nil {
			t.Fatalf("ExportIntoInput(%+v) error = %v", e, err)
		}
		var recorded int64
		for _, in := range inputs {
			if got := sumUnits(in.PaidFor); got != in.Expense {
				t.Fatalf("expense %s payer %s: Σ paidFor = %d, want %d", e.ID, in.PaidBy, got, in.Expense)
			}
			recorded += in.Expense
		}
		if recorded != paid {
			t.Fatalf("expense %s: Σ expense = %d, want %d", e.ID, recorded, paid)
		}

		shares, err := GetExpenseUnitShares(e)
		if err != nil {
			t.Fatalf("GetExpenseUnitShares(%+v) error = %v", e, err)
		}
		if got := sumUnits(shares); got != paid {
			t.Fatalf("expense %s: Σ unit shares = %d, want %d", e.ID, got, paid)
		}
	}
}

func TestAllocationIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		e := randomExpense(r, fmt.Sprintf("e%d", i))
		first, err := ExportIntoInput(e)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 5; j++ {
			again, _ := ExportIntoInput(e)
			if diff := cmp.Diff(first, again); diff != "" {
				t.Fatalf("expense %s: allocation changed between calls:\n%s", e.ID, diff)
			}
		}
	}
}

func TestEqualSplitDiffersByAtMostOneUnit(t *testing.T) {
	for amount := int64(1); amount <= 500; amount++ {
		for n := 2; n <= 6; n++ {
			e := models.Expense{
				PaidBy: map[string]float64{"alice": float64(amount)},
				Shares: make(map[string]models.ExpenseShare),
			}
			for _, p := range testParticipants[:n] {
				e.Shares[p] = models.Divide(1)
			}

			shares, err := GetExpenseUnitShares(e)
			if err != nil {
				t.Fatal(err)
			}
			lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
			for _, v := range shares {
				lo, hi = min(lo, v), max(hi, v)
			}
			if hi-lo > 1 {
				t.Fatalf("amount %d across %d: spread %d..%d", amount, n, lo, hi)
			}
			if got := sumUnits(shares); got != amount {
				t.Fatalf("amount %d across %d: sum %d", amount, n, got)
			}
		}
	}
}

func TestMulDivRound(t *testing.T) {
	tests := []struct {
		a, b, c int64
		want    int64
	}{
		{200, 1, 3, 67},
		{100, 1, 3, 33},
		{5, 1, 2, 3},
		{-5, 1, 2, -2},
		{7, 3, 0, 0},
		{10, 1, -4, -2},
		{1 << 53, 1 << 10, 1 << 10, 1 << 53},
	}
	for _, tt := range tests {
		if got := mulDivRound(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("mulDivRound(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}
