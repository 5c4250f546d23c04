package models

// Party is a group of participants sharing expenses.
type Party struct {
	// ID is the unique identifier for the party (UUID format).
	ID string `json:"id"`

	// Name is the display name of the party (e.g., "Roommates", "Trip to Lisbon").
	Name string `json:"name"`

	// Currency is the ISO code the minor units refer to. Informational only;
	// no conversion is ever performed.
	Currency string `json:"currency,omitempty"`

	// Participants is the roster, keyed by participant ID.
	Participants map[string]Participant `json:"participants"`

	// ChunkRefs lists the party's expense chunks, oldest first.
	// The newest chunk is always the last element.
	ChunkRefs []ChunkRef `json:"chunkRefs"`

	// CreatedAt is the Unix timestamp when the party was created.
	CreatedAt int64 `json:"createdAt"`
}

// Participant is a member of a Party.
type Participant struct {
	// ID is unique within the party.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`
}

// ChunkRef points from a party to one of its chunks and to the chunk's
// precomputed balance snapshot.
type ChunkRef struct {
	ChunkID    string `json:"chunkId"`
	CreatedAt  int64  `json:"createdAt"`
	BalancesID string `json:"balancesId"`
}

// NewestChunk returns the last chunk reference, if any.
func (p *Party) NewestChunk() (ChunkRef, bool) {
	if len(p.ChunkRefs) == 0 {
		return ChunkRef{}, false
	}
	return p.ChunkRefs[len(p.ChunkRefs)-1], true
}
