package split

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// mockStorage implements the storage methods the assigner touches;
// everything else panics via the embedded interface.
type mockStorage struct {
	service.Storage
	items   map[string]*model.LineItem
	history map[string]model.ShareVector
	log     []model.ShareRecord
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		items:   make(map[string]*model.LineItem),
		history: make(map[string]model.ShareVector),
	}
}

func (m *mockStorage) GetItem(_ context.Context, id string) (*model.LineItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *item
	clone.Shares = item.Shares.Clone()
	return &clone, nil
}

func (m *mockStorage) UpdateItemShares(_ context.Context, id string, shares model.ShareVector) error {
	item, ok := m.items[id]
	if !ok {
		return common.ErrNotFound
	}
	item.Shares = shares.Clone()
	return nil
}

func (m *mockStorage) GetLastShares(_ context.Context, name string) (model.ShareVector, error) {
	shares, ok := m.history[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return shares.Clone(), nil
}

func (m *mockStorage) RecordShareChoice(_ context.Context, name string, shares model.ShareVector) error {
	m.history[name] = shares.Clone()
	m.log = append(m.log, model.ShareRecord{Name: name, Shares: shares.Clone(), RecordedAt: time.Now()})
	return nil
}

func newTestAssigner(t *testing.T, store *mockStorage) *Assigner {
	t.Helper()
	a, err := NewAssigner(store, []string{"anna", "ben"})
	require.NoError(t, err)
	return a
}

func TestNewAssigner_Validation(t *testing.T) {
	store := newMockStorage()

	_, err := NewAssigner(store, []string{"solo"})
	assert.Error(t, err, "one person is not a split")

	_, err = NewAssigner(store, []string{"anna", "anna"})
	assert.Error(t, err, "duplicate persons must be rejected")

	_, err = NewAssigner(store, []string{"anna", " "})
	assert.Error(t, err, "blank person must be rejected")
}

func TestAssigner_DefaultShares(t *testing.T) {
	store := newMockStorage()
	a := newTestAssigner(t, store)
	ctx := context.Background()

	t.Run("equal split without history", func(t *testing.T) {
		shares := a.DefaultShares(ctx, "Milch")
		assert.InDelta(t, 0.5, shares["anna"], 1e-9)
		assert.InDelta(t, 0.5, shares["ben"], 1e-9)
	})

	t.Run("history ratio is proposed", func(t *testing.T) {
		store.history["milch"] = model.ShareVector{"anna": 0.8, "ben": 0.2}

		shares := a.DefaultShares(ctx, "MILCH")
		assert.InDelta(t, 0.8, shares["anna"], 1e-9, "matching is case-insensitive")
	})

	t.Run("stale person set falls back to equal", func(t *testing.T) {
		store.history["bier"] = model.ShareVector{"anna": 0.5, "cara": 0.5}

		shares := a.DefaultShares(ctx, "Bier")
		require.NoError(t, shares.Validate())
		assert.InDelta(t, 0.5, shares["anna"], 1e-9)
	})

	t.Run("unrecognized never consults history", func(t *testing.T) {
		shares := a.DefaultShares(ctx, model.Unrecognized)
		assert.InDelta(t, 0.5, shares["anna"], 1e-9)
	})
}

func TestAssigner_SetShares(t *testing.T) {
	store := newMockStorage()
	a := newTestAssigner(t, store)
	ctx := context.Background()

	store.items["i1"] = &model.LineItem{
		ID:            "i1",
		CorrectedName: "Kaffee",
		UnitPrice:     7.99,
		Shares:        model.ShareVector{"anna": 0.5, "ben": 0.5},
	}

	t.Run("valid update is applied and recorded", func(t *testing.T) {
		err := a.SetShares(ctx, "i1", model.ShareVector{"anna": 0.7, "ben": 0.3})
		require.NoError(t, err)
		assert.InDelta(t, 0.7, store.items["i1"].Shares["anna"], 1e-9)
		assert.Contains(t, store.history, "kaffee")
	})

	t.Run("invalid sum leaves previous shares intact", func(t *testing.T) {
		err := a.SetShares(ctx, "i1", model.ShareVector{"anna": 0.7, "ben": 0.4})

		var invalidErr *InvalidSplitError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, "i1", invalidErr.ItemID)
		assert.InDelta(t, 0.7, store.items["i1"].Shares["anna"], 1e-9)
		assert.InDelta(t, 0.3, store.items["i1"].Shares["ben"], 1e-9)
	})

	t.Run("unknown person is rejected", func(t *testing.T) {
		err := a.SetShares(ctx, "i1", model.ShareVector{"anna": 0.5, "cara": 0.5})
		var invalidErr *InvalidSplitError
		assert.ErrorAs(t, err, &invalidErr)
	})

	t.Run("missing item surfaces storage error", func(t *testing.T) {
		err := a.SetShares(ctx, "missing", model.ShareVector{"anna": 0.5, "ben": 0.5})
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})
}

func TestAssigner_ApplyUniform(t *testing.T) {
	ctx := context.Background()

	t.Run("remainder distributed proportionally to prior shares", func(t *testing.T) {
		store := newMockStorage()
		a, err := NewAssigner(store, []string{"anna", "ben", "cara"})
		require.NoError(t, err)

		store.items["i1"] = &model.LineItem{
			ID:        "i1",
			RawName:   "Wein",
			UnitPrice: 9.99,
			Shares:    model.ShareVector{"anna": 0.5, "ben": 0.375, "cara": 0.125},
		}

		require.NoError(t, a.ApplyUniform(ctx, []string{"i1"}, "anna", 0.2))

		shares := store.items["i1"].Shares
		require.NoError(t, shares.Validate())
		assert.InDelta(t, 0.2, shares["anna"], 1e-9)
		// ben:cara prior ratio is 3:1, so the 0.8 remainder splits 0.6/0.2.
		assert.InDelta(t, 0.6, shares["ben"], 1e-9)
		assert.InDelta(t, 0.2, shares["cara"], 1e-9)
	})

	t.Run("equal distribution when no prior shares exist", func(t *testing.T) {
		store := newMockStorage()
		a := newTestAssigner(t, store)

		store.items["i1"] = &model.LineItem{ID: "i1", RawName: "Brot", UnitPrice: 3.49}

		require.NoError(t, a.ApplyUniform(ctx, []string{"i1"}, "anna", 1.0))

		shares := store.items["i1"].Shares
		require.NoError(t, shares.Validate())
		assert.InDelta(t, 1.0, shares["anna"], 1e-9)
		assert.InDelta(t, 0.0, shares["ben"], 1e-9)
	})

	t.Run("unknown person rejected up front", func(t *testing.T) {
		store := newMockStorage()
		a := newTestAssigner(t, store)
		assert.Error(t, a.ApplyUniform(ctx, nil, "cara", 0.5))
	})

	t.Run("fraction outside unit interval rejected", func(t *testing.T) {
		store := newMockStorage()
		a := newTestAssigner(t, store)
		assert.Error(t, a.ApplyUniform(ctx, nil, "anna", 1.2))
	})
}

func TestSoloBuyers(t *testing.T) {
	records := []model.ShareRecord{
		{Name: "zigaretten", Shares: model.ShareVector{"anna": 1.0, "ben": 0.0}},
		{Name: "zigaretten", Shares: model.ShareVector{"anna": 1.0, "ben": 0.0}},
		{Name: "zigaretten", Shares: model.ShareVector{"anna": 1.0, "ben": 0.0}},
		{Name: "milch", Shares: model.ShareVector{"anna": 0.5, "ben": 0.5}},
		{Name: "milch", Shares: model.ShareVector{"anna": 0.5, "ben": 0.5}},
		// Bought once alone, but only once overall: below min purchases.
		{Name: "chips", Shares: model.ShareVector{"anna": 0.0, "ben": 1.0}},
	}

	insights := SoloBuyers(records)

	require.Len(t, insights, 1)
	assert.Equal(t, "zigaretten", insights[0].Name)
	assert.Equal(t, "anna", insights[0].Person)
	assert.Equal(t, 3, insights[0].Purchases)
	assert.InDelta(t, 1.0, insights[0].Ratio, 1e-9)
}
