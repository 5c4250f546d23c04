// Package service implements the ledger's Connect handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HorusGoul/trizum-sub001/internal/cache"
	"github.com/HorusGoul/trizum-sub001/internal/calculator"
	"github.com/HorusGoul/trizum-sub001/internal/chunks"
	"github.com/HorusGoul/trizum-sub001/internal/models"
	"github.com/HorusGoul/trizum-sub001/internal/storage"
)

// maxConcurrentLoads bounds the chunk and snapshot reads issued per request.
const maxConcurrentLoads = 8

// Options tunes a LedgerService.
type Options struct {
	// ChunkMaxSize is the capacity of newly opened chunks.
	ChunkMaxSize int

	// BalanceCacheSize and BalanceCacheTTL configure the snapshot cache.
	// A size of zero disables caching.
	BalanceCacheSize int
	BalanceCacheTTL  time.Duration
}

// LedgerService implements the ledger Connect service.
type LedgerService struct {
	store        storage.Store
	chunkMaxSize int
	balances     *cache.LRU[models.BalancesByParticipant]

	// writeMu serializes read-modify-write cycles on party documents. Readers
	// that fill the snapshot cache hold it shared, so a fill never lands after
	// a newer write and overwrites its snapshot.
	writeMu sync.RWMutex
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, opts Options) *LedgerService {
	if opts.ChunkMaxSize <= 0 {
		opts.ChunkMaxSize = models.DefaultChunkMaxSize
	}
	return &LedgerService{
		store:        store,
		chunkMaxSize: opts.ChunkMaxSize,
		balances:     cache.NewLRU[models.BalancesByParticipant](opts.BalanceCacheSize, opts.BalanceCacheTTL),
	}
}

// BalanceCache exposes the snapshot cache so its owner can schedule cleanup.
func (s *LedgerService) BalanceCache() cache.Cleaner {
	return s.balances
}

// toConnectError maps domain and storage errors onto Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrDataIntegrity):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// CreateParty creates a party with its initial roster.
func (s *LedgerService) CreateParty(ctx context.Context, req *connect.Request[CreatePartyRequest]) (*connect.Response[CreatePartyResponse], error) {
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("party name is required"))
	}

	participants := make(map[string]models.Participant, len(req.Msg.Participants))
	for _, p := range req.Msg.Participants {
		if p.ID == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("participant id is required"))
		}
		if _, dup := participants[p.ID]; dup {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("duplicate participant id '%s'", p.ID))
		}
		participants[p.ID] = p
	}

	party := &models.Party{
		Name:         req.Msg.Name,
		Currency:     req.Msg.Currency,
		Participants: participants,
		ChunkRefs:    []models.ChunkRef{},
	}
	if err := s.store.CreateParty(ctx, party); err != nil {
		slog.Error("CreateParty failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Party created", "party_id", party.ID, "participants", len(participants))
	return connect.NewResponse(&CreatePartyResponse{Party: *party}), nil
}

// GetParty returns a party document.
func (s *LedgerService) GetParty(ctx context.Context, req *connect.Request[GetPartyRequest]) (*connect.Response[GetPartyResponse], error) {
	party, err := s.store.GetParty(ctx, req.Msg.PartyID)
	if err != nil {
		slog.Error("GetParty failed", "party_id", req.Msg.PartyID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetPartyResponse{Party: *party}), nil
}

// CalculateShares previews how an expense would be allocated. Nothing is stored.
func (s *LedgerService) CalculateShares(ctx context.Context, req *connect.Request[CalculateSharesRequest]) (*connect.Response[CalculateSharesResponse], error) {
	inputs, err := calculator.ExportIntoInput(req.Msg.Expense)
	if err != nil {
		slog.Error("CalculateShares failed", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	shares, err := calculator.GetExpenseUnitShares(req.Msg.Expense)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Debug("Calculated shares", "expense_id", req.Msg.Expense.ID, "payers", len(inputs), "participants", len(shares))
	return connect.NewResponse(&CalculateSharesResponse{
		Shares: shares,
		Inputs: inputs,
	}), nil
}

// AddExpense appends an expense to the party's newest chunk, opening a new
// chunk when that one is full, and stores the chunk's refreshed balance
// snapshot alongside it.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	expense := req.Msg.Expense
	if err := calculator.ValidateExpense(expense); err != nil {
		slog.Error("AddExpense validation failed", "party_id", req.Msg.PartyID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.PaidAt == 0 {
		expense.PaidAt = time.Now().Unix()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	party, err := s.store.GetParty(ctx, req.Msg.PartyID)
	if err != nil {
		slog.Error("AddExpense failed to load party", "party_id", req.Msg.PartyID, "error", err)
		return nil, toConnectError(err)
	}

	chunk, ref, err := s.writableChunk(ctx, party)
	if err != nil {
		slog.Error("AddExpense failed to load chunk", "party_id", party.ID, "error", err)
		return nil, toConnectError(err)
	}
	chunk.Expenses = append(chunk.Expenses, expense)

	if err := s.commit(ctx, party, chunk, ref); err != nil {
		slog.Error("AddExpense failed", "party_id", party.ID, "chunk_id", chunk.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense added",
		"party_id", party.ID,
		"expense_id", expense.ID,
		"chunk_id", chunk.ID,
		"chunk_size", len(chunk.Expenses),
	)
	return connect.NewResponse(&AddExpenseResponse{
		ExpenseID: expense.ID,
		ChunkID:   chunk.ID,
	}), nil
}

// writableChunk returns the chunk new expenses go to. When the party has no
// chunk or its newest one is full, a fresh chunk is opened and referenced from
// the party (not yet persisted).
func (s *LedgerService) writableChunk(ctx context.Context, party *models.Party) (*models.Chunk, models.ChunkRef, error) {
	if ref, ok := party.NewestChunk(); ok {
		chunk, err := s.store.GetChunk(ctx, ref.ChunkID)
		if err != nil {
			return nil, models.ChunkRef{}, err
		}
		if !chunk.Full() {
			return chunk, ref, nil
		}
	}

	now := time.Now().Unix()
	chunk := &models.Chunk{
		ID:        uuid.New().String(),
		PartyID:   party.ID,
		CreatedAt: now,
		Expenses:  []models.Expense{},
		MaxSize:   s.chunkMaxSize,
	}
	ref := models.ChunkRef{
		ChunkID:    chunk.ID,
		CreatedAt:  now,
		BalancesID: uuid.New().String(),
	}
	party.ChunkRefs = append(party.ChunkRefs, ref)
	slog.Info("Opened new chunk", "party_id", party.ID, "chunk_id", chunk.ID, "max_size", chunk.MaxSize)
	return chunk, ref, nil
}

// commit recomputes the chunk's balance snapshot and writes chunk, snapshot and
// party together.
func (s *LedgerService) commit(ctx context.Context, party *models.Party, chunk *models.Chunk, ref models.ChunkRef) error {
	balances, err := calculator.CalculateBalancesByParticipant(chunk.Expenses, party.Participants)
	if err != nil {
		return err
	}
	if err := s.store.CommitChunk(ctx, party, chunk, ref.BalancesID, balances); err != nil {
		return err
	}
	s.balances.Set(ref.BalancesID, balances)
	return nil
}

// DeleteExpense removes an expense from whichever chunk holds it, searching
// newest chunk first.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	party, err := s.store.GetParty(ctx, req.Msg.PartyID)
	if err != nil {
		slog.Error("DeleteExpense failed to load party", "party_id", req.Msg.PartyID, "error", err)
		return nil, toConnectError(err)
	}

	for i := len(party.ChunkRefs) - 1; i >= 0; i-- {
		ref := party.ChunkRefs[i]
		chunk, err := s.store.GetChunk(ctx, ref.ChunkID)
		if err != nil {
			slog.Error("DeleteExpense failed to load chunk", "party_id", party.ID, "chunk_id", ref.ChunkID, "error", err)
			return nil, toConnectError(err)
		}

		idx := slices.IndexFunc(chunk.Expenses, func(e models.Expense) bool {
			return e.ID == req.Msg.ExpenseID
		})
		if idx < 0 {
			continue
		}
		chunk.Expenses = slices.Delete(chunk.Expenses, idx, idx+1)

		if err := s.commit(ctx, party, chunk, ref); err != nil {
			slog.Error("DeleteExpense failed", "party_id", party.ID, "chunk_id", chunk.ID, "error", err)
			return nil, toConnectError(err)
		}
		slog.Info("Expense deleted", "party_id", party.ID, "expense_id", req.Msg.ExpenseID, "chunk_id", chunk.ID)
		return connect.NewResponse(&DeleteExpenseResponse{ChunkID: chunk.ID}), nil
	}

	return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("expense %s: %w", req.Msg.ExpenseID, storage.ErrNotFound))
}

// ListExpenses loads the next page of chunks after the ones the caller holds.
// A chunk that cannot be found is skipped and stays available.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	party, err := s.store.GetParty(ctx, req.Msg.PartyID)
	if err != nil {
		slog.Error("ListExpenses failed to load party", "party_id", req.Msg.PartyID, "error", err)
		return nil, toConnectError(err)
	}

	count := req.Msg.Count
	if count <= 0 {
		count = 1
	}
	previous := chunks.CreatePagination(party, req.Msg.LoadedChunkIDs)
	ids := chunks.NextChunkIDs(party, req.Msg.LoadedChunkIDs, count)
	if chunks.NeedsInitialLoad(party, req.Msg.LoadedChunkIDs) {
		slog.Debug("Initial chunk load", "party_id", party.ID)
	}

	loaded := make([]*models.Chunk, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, id := range ids {
		g.Go(func() error {
			chunk, err := s.store.GetChunk(gctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("Referenced chunk not found", "party_id", party.ID, "chunk_id", id)
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("ListExpenses failed to load chunks", "party_id", party.ID, "error", err)
		return nil, toConnectError(err)
	}

	page := chunks.CreatePaginatedExpenses(party, loaded)
	pagination := chunks.UpdateAfterLoad(party, previous, page.Pagination.LoadedChunkIDs)

	return connect.NewResponse(&ListExpensesResponse{
		Expenses:   page.Expenses,
		ChunkIDs:   page.Pagination.LoadedChunkIDs,
		Pagination: pagination,
	}), nil
}

// GetBalances merges every chunk's balance snapshot into the party's current
// balances and proposes transfers settling them.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	s.writeMu.RLock()
	defer s.writeMu.RUnlock()

	party, err := s.store.GetParty(ctx, req.Msg.PartyID)
	if err != nil {
		slog.Error("GetBalances failed to load party", "party_id", req.Msg.PartyID, "error", err)
		return nil, toConnectError(err)
	}

	snapshots := make([]models.BalancesByParticipant, len(party.ChunkRefs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, ref := range party.ChunkRefs {
		g.Go(func() error {
			snapshot, err := s.snapshot(gctx, party, ref)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("GetBalances failed to load snapshots", "party_id", party.ID, "error", err)
		return nil, toConnectError(err)
	}

	balances := calculator.MergePartyBalances(party.Participants, snapshots...)
	transactions := calculator.SimplifyBalanceTransactions(balances)

	hits, misses := s.balances.Stats()
	slog.Debug("Balances computed",
		"party_id", party.ID,
		"chunks", len(snapshots),
		"transactions", len(transactions),
		"cache_hits", hits,
		"cache_misses", misses,
	)
	return connect.NewResponse(&GetBalancesResponse{
		Balances:     balances,
		Transactions: transactions,
	}), nil
}

// snapshot returns a chunk's balance snapshot from the cache or the store.
// A missing snapshot is rebuilt from the chunk itself. Callers hold writeMu
// for reading.
func (s *LedgerService) snapshot(ctx context.Context, party *models.Party, ref models.ChunkRef) (models.BalancesByParticipant, error) {
	if cached, ok := s.balances.Get(ref.BalancesID); ok {
		return cached, nil
	}

	balances, err := s.store.GetChunkBalances(ctx, ref.BalancesID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Balance snapshot missing, recomputing from chunk", "party_id", party.ID, "chunk_id", ref.ChunkID)
		chunk, err := s.store.GetChunk(ctx, ref.ChunkID)
		if err != nil {
			return nil, err
		}
		balances, err = calculator.CalculateBalancesByParticipant(chunk.Expenses, party.Participants)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	s.balances.Set(ref.BalancesID, balances)
	return balances, nil
}
