// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// Parties, chunks and chunk balance snapshots are stored as JSON documents,
// mirroring the document store the ledger normally sits on.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/HorusGoul/trizum-sub001/internal/models"
	"github.com/HorusGoul/trizum-sub001/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps the pragmas below in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateParty persists a new party document.
func (s *SQLiteStore) CreateParty(ctx context.Context, party *models.Party) error {
	// Generate IDs if not set
	if party.ID == "" {
		party.ID = uuid.New().String()
	}
	if party.CreatedAt == 0 {
		party.CreatedAt = time.Now().Unix()
	}
	if party.Participants == nil {
		party.Participants = make(map[string]models.Participant)
	}

	doc, err := json.Marshal(party)
	if err != nil {
		return fmt.Errorf("failed to encode party: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO parties (id, name, created_at, document) VALUES (?, ?, ?, ?)",
		party.ID, party.Name, party.CreatedAt, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert party: %w", err)
	}
	return nil
}

// GetParty retrieves a party document by ID.
func (s *SQLiteStore) GetParty(ctx context.Context, partyID string) (*models.Party, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM parties WHERE id = ?",
		partyID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("party %s: %w", partyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	party := &models.Party{}
	if err := json.Unmarshal([]byte(doc), party); err != nil {
		return nil, fmt.Errorf("failed to decode party %s: %w", partyID, err)
	}
	return party, nil
}

// GetChunk retrieves a chunk document by ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (*models.Chunk, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM chunks WHERE id = ?",
		chunkID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}

	chunk := &models.Chunk{}
	if err := json.Unmarshal([]byte(doc), chunk); err != nil {
		return nil, fmt.Errorf("failed to decode chunk %s: %w", chunkID, err)
	}
	return chunk, nil
}

// GetChunkBalances retrieves a chunk's balance snapshot by its balances ID.
func (s *SQLiteStore) GetChunkBalances(ctx context.Context, balancesID string) (models.BalancesByParticipant, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM chunk_balances WHERE id = ?",
		balancesID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk balances %s: %w", balancesID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk balances: %w", err)
	}

	var balances models.BalancesByParticipant
	if err := json.Unmarshal([]byte(doc), &balances); err != nil {
		return nil, fmt.Errorf("failed to decode chunk balances %s: %w", balancesID, err)
	}
	return balances, nil
}

// CommitChunk upserts the chunk and its balance snapshot and updates the party
// in a single transaction.
func (s *SQLiteStore) CommitChunk(ctx context.Context, party *models.Party, chunk *models.Chunk, balancesID string, balances models.BalancesByParticipant) error {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	if chunk.CreatedAt == 0 {
		chunk.CreatedAt = time.Now().Unix()
	}
	chunk.PartyID = party.ID

	chunkDoc, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to encode chunk: %w", err)
	}
	balancesDoc, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to encode chunk balances: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chunks (id, party_id, created_at, document) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document`,
		chunk.ID, chunk.PartyID, chunk.CreatedAt, string(chunkDoc),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chunk_balances (id, party_id, chunk_id, document) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document`,
		balancesID, party.ID, chunk.ID, string(balancesDoc),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk balances: %w", err)
	}

	if err := updateParty(ctx, tx, party); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateParty(ctx context.Context, db execer, party *models.Party) error {
	doc, err := json.Marshal(party)
	if err != nil {
		return fmt.Errorf("failed to encode party: %w", err)
	}

	result, err := db.ExecContext(ctx,
		"UPDATE parties SET name = ?, document = ? WHERE id = ?",
		party.Name, string(doc), party.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update party: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("party %s: %w", party.ID, storage.ErrNotFound)
	}
	return nil
}
