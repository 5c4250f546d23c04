package chunks

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

const day = int64(24 * 60 * 60)

func threeChunkParty() *models.Party {
	return &models.Party{
		ID: "party",
		ChunkRefs: []models.ChunkRef{
			{ChunkID: "c1", CreatedAt: 1 * day, BalancesID: "b1"},
			{ChunkID: "c2", CreatedAt: 2 * day, BalancesID: "b2"},
			{ChunkID: "c3", CreatedAt: 3 * day, BalancesID: "b3"},
		},
	}
}

func TestCreatePagination(t *testing.T) {
	party := threeChunkParty()

	tests := []struct {
		name   string
		loaded []string
		want   models.ChunkPaginationState
	}{
		{
			name:   "nothing loaded",
			loaded: nil,
			want: models.ChunkPaginationState{
				LoadedChunkIDs:    []string{},
				AvailableChunkIDs: []string{"c3", "c2", "c1"},
				HasMore:           true,
				TotalChunks:       3,
				LoadedChunks:      0,
			},
		},
		{
			name:   "newest loaded",
			loaded: []string{"c3"},
			want: models.ChunkPaginationState{
				LoadedChunkIDs:    []string{"c3"},
				AvailableChunkIDs: []string{"c2", "c1"},
				HasMore:           true,
				TotalChunks:       3,
				LoadedChunks:      1,
			},
		},
		{
			name:   "everything loaded",
			loaded: []string{"c3", "c2", "c1"},
			want: models.ChunkPaginationState{
				LoadedChunkIDs:    []string{"c3", "c2", "c1"},
				AvailableChunkIDs: []string{},
				HasMore:           false,
				TotalChunks:       3,
				LoadedChunks:      3,
			},
		},
		{
			name:   "duplicate and unknown ids are dropped",
			loaded: []string{"c3", "c3", "gone", "gone2"},
			want: models.ChunkPaginationState{
				LoadedChunkIDs:    []string{"c3"},
				AvailableChunkIDs: []string{"c2", "c1"},
				HasMore:           true,
				TotalChunks:       3,
				LoadedChunks:      1,
			},
		},
		{
			name:   "only unknown ids",
			loaded: []string{"gone"},
			want: models.ChunkPaginationState{
				LoadedChunkIDs:    []string{},
				AvailableChunkIDs: []string{"c3", "c2", "c1"},
				HasMore:           true,
				TotalChunks:       3,
				LoadedChunks:      0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreatePagination(party, tt.loaded)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CreatePagination() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNextChunkIDs(t *testing.T) {
	party := threeChunkParty()

	if got := NextChunkIDs(party, nil, 1); !cmp.Equal(got, []string{"c3"}) {
		t.Errorf("first page = %v, want [c3]", got)
	}
	if got := NextChunkIDs(party, []string{"c3"}, 2); !cmp.Equal(got, []string{"c2", "c1"}) {
		t.Errorf("after c3 = %v, want [c2 c1]", got)
	}
	if got := NextChunkIDs(party, []string{"c3"}, 10); !cmp.Equal(got, []string{"c2", "c1"}) {
		t.Errorf("oversized count = %v, want [c2 c1]", got)
	}
	if got := NextChunkIDs(party, []string{"c1", "c2", "c3"}, 1); len(got) != 0 {
		t.Errorf("fully loaded = %v, want empty", got)
	}
	if got := NextChunkIDs(party, nil, 0); len(got) != 0 {
		t.Errorf("zero count = %v, want empty", got)
	}
}

func TestInitialLoad(t *testing.T) {
	party := threeChunkParty()
	empty := &models.Party{ID: "empty"}

	if id, ok := InitialChunkID(party); !ok || id != "c3" {
		t.Errorf("InitialChunkID() = %q, %v, want c3, true", id, ok)
	}
	if _, ok := InitialChunkID(empty); ok {
		t.Error("InitialChunkID() on empty party should report none")
	}

	if !NeedsInitialLoad(party, nil) {
		t.Error("expected initial load with nothing loaded")
	}
	if !NeedsInitialLoad(party, []string{"c1", "c2"}) {
		t.Error("expected initial load when only older chunks are loaded")
	}
	if NeedsInitialLoad(party, []string{"c3"}) {
		t.Error("newest chunk is loaded, no initial load needed")
	}
	if NeedsInitialLoad(empty, nil) {
		t.Error("party with zero chunks never needs an initial load")
	}
}

func TestUpdateAfterLoad(t *testing.T) {
	party := threeChunkParty()

	state := CreatePagination(party, nil)
	state = UpdateAfterLoad(party, state, []string{"c3"})
	if !state.HasMore || state.LoadedChunks != 1 {
		t.Fatalf("after c3: %+v", state)
	}

	// Reloading a chunk must not drift the counts.
	state = UpdateAfterLoad(party, state, []string{"c3", "c2"})
	if diff := cmp.Diff([]string{"c3", "c2"}, state.LoadedChunkIDs); diff != "" {
		t.Errorf("loaded ids mismatch (-want +got):\n%s", diff)
	}
	if state.LoadedChunks != 2 {
		t.Errorf("LoadedChunks = %d, want 2", state.LoadedChunks)
	}

	previous := state
	state = UpdateAfterLoad(party, state, []string{"c1"})
	if state.HasMore || len(state.AvailableChunkIDs) != 0 || state.LoadedChunks != 3 {
		t.Errorf("expected fully loaded state, got %+v", state)
	}
	if len(previous.LoadedChunkIDs) != 2 {
		t.Error("UpdateAfterLoad modified the previous state")
	}
}

func expense(id string) models.Expense {
	return models.Expense{ID: id, PaidBy: map[string]float64{"alice": 100}}
}

func TestCollectExpenses(t *testing.T) {
	c1 := &models.Chunk{ID: "c1", CreatedAt: 1 * day, Expenses: []models.Expense{expense("e1"), expense("e2")}}
	c2 := &models.Chunk{ID: "c2", CreatedAt: 2 * day, Expenses: []models.Expense{expense("e3")}}
	// e0 is an older expense added retroactively to the newest chunk.
	c3 := &models.Chunk{ID: "c3", CreatedAt: 3 * day, Expenses: []models.Expense{expense("e4"), expense("e0")}}

	got := CollectExpenses([]*models.Chunk{c1, nil, c3, c2})

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	want := []string{"e4", "e0", "e3", "e1", "e2"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("CollectExpenses() order mismatch (-want +got):\n%s", diff)
	}

	if got := CollectExpenses(nil); len(got) != 0 {
		t.Errorf("expected no expenses, got %d", len(got))
	}
}

func TestCollectExpenses_SameSecondKeepsInputOrder(t *testing.T) {
	older := &models.Chunk{ID: "older", CreatedAt: day, Expenses: []models.Expense{expense("e1")}}
	newer := &models.Chunk{ID: "newer", CreatedAt: day, Expenses: []models.Expense{expense("e2")}}

	got := CollectExpenses([]*models.Chunk{newer, older})

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"e2", "e1"}, ids); diff != "" {
		t.Errorf("CollectExpenses() order mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePaginatedExpenses(t *testing.T) {
	party := threeChunkParty()
	c3 := &models.Chunk{ID: "c3", CreatedAt: 3 * day, Expenses: []models.Expense{expense("e5"), expense("e6")}}
	c2 := &models.Chunk{ID: "c2", CreatedAt: 2 * day, Expenses: []models.Expense{expense("e4")}}

	got := CreatePaginatedExpenses(party, []*models.Chunk{c2, c3, nil})

	if len(got.Expenses) != 3 || got.Expenses[0].ID != "e5" || got.Expenses[2].ID != "e4" {
		t.Errorf("unexpected expenses: %+v", got.Expenses)
	}
	want := models.ChunkPaginationState{
		LoadedChunkIDs:    []string{"c2", "c3"},
		AvailableChunkIDs: []string{"c1"},
		HasMore:           true,
		TotalChunks:       3,
		LoadedChunks:      2,
	}
	if diff := cmp.Diff(want, got.Pagination); diff != "" {
		t.Errorf("pagination mismatch (-want +got):\n%s", diff)
	}
}
