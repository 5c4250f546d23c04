package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrDataIntegrity matches every DataIntegrityError via errors.Is.
var ErrDataIntegrity = errors.New("expense data integrity violation")

// maxSafeUnits is the largest integer a float64 JSON number holds exactly.
const maxSafeUnits = 1 << 53

// DataIntegrityError reports an expense amount that is not a valid integer
// number of minor units. It signals upstream corruption and is never retried.
type DataIntegrityError struct {
	ExpenseID     string
	ParticipantID string
	Field         string // "paidBy" or "shares"
	Value         float64
	Reason        string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("expense %s: %s[%s] = %v: %s",
		e.ExpenseID, e.Field, e.ParticipantID, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrDataIntegrity) true for any DataIntegrityError.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// toUnits converts a document number to minor units, failing on anything
// that is not an exactly representable integer.
func toUnits(v float64) (int64, string) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, "not a finite number"
	case v != math.Trunc(v):
		return 0, "not an integer amount of minor units"
	case math.Abs(v) > maxSafeUnits:
		return 0, "exceeds the exactly representable range"
	}
	return int64(v), ""
}
