// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the document operations the ledger needs.
// This abstraction allows swapping storage backends (SQLite, a replicated
// document store, etc.) without changing the service layer.
//
// Stores hand out fresh values on every read; callers may modify them freely.
type Store interface {
	// CreateParty persists a new party.
	// The party.ID and party.CreatedAt fields will be populated by the store if empty.
	CreateParty(ctx context.Context, party *models.Party) error

	// GetParty retrieves a party by its ID.
	GetParty(ctx context.Context, partyID string) (*models.Party, error)

	// GetChunk retrieves a chunk by its ID.
	GetChunk(ctx context.Context, chunkID string) (*models.Chunk, error)

	// GetChunkBalances retrieves the precomputed balance snapshot of one chunk.
	GetChunkBalances(ctx context.Context, balancesID string) (models.BalancesByParticipant, error)

	// CommitChunk atomically writes a chunk, its balance snapshot and the
	// owning party (whose chunk references may have changed).
	CommitChunk(ctx context.Context, party *models.Party, chunk *models.Chunk, balancesID string, balances models.BalancesByParticipant) error

	// Close releases any resources held by the store.
	Close() error
}
