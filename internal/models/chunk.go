package models

// DefaultChunkMaxSize is the number of expenses a chunk holds before the
// writer opens a new one.
const DefaultChunkMaxSize = 100

// Chunk is an ordered, bounded bucket of a party's expense history.
type Chunk struct {
	// ID is the unique identifier for the chunk (UUID format).
	ID string `json:"id"`

	// PartyID is the owning party.
	PartyID string `json:"partyId"`

	// CreatedAt is the Unix timestamp when the chunk was opened.
	CreatedAt int64 `json:"createdAt"`

	// Expenses are kept in stored order.
	Expenses []Expense `json:"expenses"`

	// MaxSize is the capacity of the chunk.
	MaxSize int `json:"maxSize"`
}

// Full reports whether the chunk reached its capacity.
func (c *Chunk) Full() bool {
	return c.MaxSize > 0 && len(c.Expenses) >= c.MaxSize
}

// ChunkPaginationState describes which of a party's chunks are loaded.
// It is always derived from the party's chunk references and the loaded IDs,
// never patched in place.
type ChunkPaginationState struct {
	LoadedChunkIDs    []string `json:"loadedChunkIds"`
	AvailableChunkIDs []string `json:"availableChunkIds"` // newest first
	HasMore           bool     `json:"hasMore"`
	TotalChunks       int      `json:"totalChunks"`
	LoadedChunks      int      `json:"loadedChunks"`
}

// PaginatedExpenses pairs the expenses of the loaded chunks with their pagination state.
type PaginatedExpenses struct {
	Expenses   []Expense            `json:"expenses"`
	Pagination ChunkPaginationState `json:"pagination"`
}
