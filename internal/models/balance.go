package models

// LogStats is the directional net flow between two participants.
// Positive DiffUnsplitted means the other participant owes the user.
type LogStats struct {
	DiffUnsplitted int64 `json:"diffUnsplitted"`
}

// UserStats summarizes one participant's debtor/creditor position.
type UserStats struct {
	// UserOwes is the sum of negative diffs, as a positive amount.
	UserOwes int64 `json:"userOwes"`

	// OwedToUser is the sum of positive diffs.
	OwedToUser int64 `json:"owedToUser"`

	// Diffs holds the pairwise breakdown keyed by counterpart ID.
	Diffs map[string]LogStats `json:"diffs"`

	// Balance is paid minus owed across the expenses considered.
	// Zero until filled in by the balance aggregator.
	Balance int64 `json:"balance"`
}

// BalanceEntry is one participant's row in a BalancesByParticipant snapshot.
type BalanceEntry struct {
	ParticipantID string    `json:"participantId"`
	Stats         UserStats `json:"stats"`

	// VisualRatio is Balance divided by the largest absolute balance of the
	// same snapshot, in [-1, 1]. Presentation only.
	VisualRatio float64 `json:"visualRatio"`
}

// BalancesByParticipant maps participant IDs to their balance rows.
type BalancesByParticipant map[string]BalanceEntry

// Transaction is one settlement transfer.
type Transaction struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}
