package models

import (
	"encoding/json"
	"fmt"
)

// Expense is a single spending event with payer(s) and allocation rule(s).
// Expense values are immutable once computed from; editing produces a new value.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Name is the human-readable description (e.g., "Dinner", "Groceries").
	Name string `json:"name"`

	// PaidAt is the Unix timestamp of the spending event.
	PaidAt int64 `json:"paidAt"`

	// PaidBy maps each payer to the minor units they fronted.
	// Multiple payers are allowed. The amounts need not match what Shares
	// implies; the calculator reconciles allocations to the paid total.
	PaidBy map[string]float64 `json:"paidBy"`

	// Shares maps each participant to their allocation rule.
	Shares map[string]ExpenseShare `json:"shares"`

	// Photos holds attachment references. Never read by the ledger core.
	Photos []string `json:"photos,omitempty"`
}

// ShareKind discriminates ExpenseShare variants.
type ShareKind uint8

const (
	// ShareExact is a fixed minor-unit amount owed.
	ShareExact ShareKind = iota + 1
	// ShareDivide is a proportional weight against the other Divide shares.
	ShareDivide
)

func (k ShareKind) String() string {
	switch k {
	case ShareExact:
		return "exact"
	case ShareDivide:
		return "divide"
	default:
		return fmt.Sprintf("ShareKind(%d)", uint8(k))
	}
}

// ExpenseShare is the tagged variant Exact{value} | Divide{weight}.
// Value holds the amount for Exact shares and the weight for Divide shares.
type ExpenseShare struct {
	Kind  ShareKind
	Value float64
}

// Exact returns a share owing a fixed amount of minor units.
func Exact(value float64) ExpenseShare {
	return ExpenseShare{Kind: ShareExact, Value: value}
}

// Divide returns a share splitting the remainder by weight.
func Divide(weight float64) ExpenseShare {
	return ExpenseShare{Kind: ShareDivide, Value: weight}
}

type expenseShareJSON struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// MarshalJSON encodes the share as {"type":"exact"|"divide","value":n}.
func (s ExpenseShare) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case ShareExact, ShareDivide:
		return json.Marshal(expenseShareJSON{Type: s.Kind.String(), Value: s.Value})
	default:
		return nil, fmt.Errorf("unknown share kind: %s", s.Kind)
	}
}

// UnmarshalJSON decodes {"type":"exact"|"divide","value":n}.
func (s *ExpenseShare) UnmarshalJSON(data []byte) error {
	var raw expenseShareJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "exact":
		*s = Exact(raw.Value)
	case "divide":
		*s = Divide(raw.Value)
	default:
		return fmt.Errorf("unknown share type %q", raw.Type)
	}
	return nil
}
