// Package chunks manages incremental loading of a party's chunked expense
// history.
//
// A party lists its chunks oldest first; pagination always hands them out
// newest first. Loading is monotonic: no-chunks-loaded, partially loaded
// (HasMore), fully loaded. Chunks are never evicted here.
package chunks

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// CreatePagination derives the pagination state of party for the given set of
// already-loaded chunk IDs. Duplicates and IDs the party does not reference
// are dropped, so LoadedChunks never exceeds TotalChunks.
func CreatePagination(party *models.Party, loadedChunkIDs []string) models.ChunkPaginationState {
	known := make(map[string]bool, len(party.ChunkRefs))
	for _, ref := range party.ChunkRefs {
		known[ref.ChunkID] = true
	}

	loaded := make(map[string]bool, len(loadedChunkIDs))
	loadedIDs := make([]string, 0, len(loadedChunkIDs))
	for _, id := range loadedChunkIDs {
		if !known[id] || loaded[id] {
			continue
		}
		loaded[id] = true
		loadedIDs = append(loadedIDs, id)
	}

	available := make([]string, 0, len(party.ChunkRefs))
	for i := len(party.ChunkRefs) - 1; i >= 0; i-- {
		id := party.ChunkRefs[i].ChunkID
		if !loaded[id] {
			available = append(available, id)
		}
	}

	return models.ChunkPaginationState{
		LoadedChunkIDs:    loadedIDs,
		AvailableChunkIDs: available,
		HasMore:           len(available) > 0,
		TotalChunks:       len(party.ChunkRefs),
		LoadedChunks:      len(loadedIDs),
	}
}

// NextChunkIDs returns up to count unloaded chunk IDs, newest first.
func NextChunkIDs(party *models.Party, loadedChunkIDs []string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	available := CreatePagination(party, loadedChunkIDs).AvailableChunkIDs
	if len(available) > count {
		available = available[:count]
	}
	return available
}

// NeedsInitialLoad reports whether the newest chunk is not loaded yet.
// A party without chunks never needs one.
func NeedsInitialLoad(party *models.Party, loadedChunkIDs []string) bool {
	newest, ok := InitialChunkID(party)
	if !ok {
		return false
	}
	return !slices.Contains(loadedChunkIDs, newest)
}

// InitialChunkID returns the newest chunk ID, if the party has any chunk.
func InitialChunkID(party *models.Party) (string, bool) {
	ref, ok := party.NewestChunk()
	if !ok {
		return "", false
	}
	return ref.ChunkID, true
}

// CollectExpenses concatenates the expenses of chunks, newest chunk first.
// Within a chunk the stored order is kept, so an older expense added to a newer
// chunk sorts with that chunk. Nil entries (a chunk that was requested but has
// not arrived) are skipped with a warning.
//
// CreatedAt has one-second resolution and chunks carry no other ordering key,
// so chunks opened within the same second keep their input order. Callers pass
// chunks newest first, as NextChunkIDs hands them out.
func CollectExpenses(chunks []*models.Chunk) []models.Expense {
	present := make([]*models.Chunk, 0, len(chunks))
	for i, c := range chunks {
		if c == nil {
			slog.Warn("Chunk missing while collecting expenses, treating as empty", "index", i)
			continue
		}
		present = append(present, c)
	}

	slices.SortStableFunc(present, func(a, b *models.Chunk) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})

	var total int
	for _, c := range present {
		total += len(c.Expenses)
	}
	expenses := make([]models.Expense, 0, total)
	for _, c := range present {
		expenses = append(expenses, c.Expenses...)
	}
	return expenses
}

// UpdateAfterLoad appends newly loaded IDs to the previous state's loaded set
// and regenerates the whole state from the party.
func UpdateAfterLoad(party *models.Party, previous models.ChunkPaginationState, newlyLoadedIDs []string) models.ChunkPaginationState {
	loaded := slices.Clone(previous.LoadedChunkIDs)
	for _, id := range newlyLoadedIDs {
		if !slices.Contains(loaded, id) {
			loaded = append(loaded, id)
		}
	}
	return CreatePagination(party, loaded)
}

// CreatePaginatedExpenses combines the expenses of the loaded chunks with the
// pagination state they imply. Nil chunks do not count as loaded.
func CreatePaginatedExpenses(party *models.Party, loadedChunks []*models.Chunk) models.PaginatedExpenses {
	loadedIDs := make([]string, 0, len(loadedChunks))
	for _, c := range loadedChunks {
		if c != nil && !slices.Contains(loadedIDs, c.ID) {
			loadedIDs = append(loadedIDs, c.ID)
		}
	}

	return models.PaginatedExpenses{
		Expenses:   CollectExpenses(loadedChunks),
		Pagination: CreatePagination(party, loadedIDs),
	}
}
