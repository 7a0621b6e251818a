package sampler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/venue"
)

type fakeStore struct {
	paperOwners   []Owner
	aiOwners      []Owner
	paperSnaps    []Snapshot
	aiSnaps       []Snapshot
	paperListErr  error
	aiListErr     error
}

func (f *fakeStore) PaperOwners(ctx context.Context) ([]Owner, error) {
	return f.paperOwners, f.paperListErr
}
func (f *fakeStore) AiOwners(ctx context.Context) ([]Owner, error) {
	return f.aiOwners, f.aiListErr
}
func (f *fakeStore) InsertPaperSnapshot(ctx context.Context, s Snapshot) error {
	f.paperSnaps = append(f.paperSnaps, s)
	return nil
}
func (f *fakeStore) InsertAiSnapshot(ctx context.Context, s Snapshot) error {
	f.aiSnaps = append(f.aiSnaps, s)
	return nil
}

func mark(v float64) *float64 { return &v }

func resultWithMark(asset string, markPrice float64) *aggregator.AggregatedResult {
	return &aggregator.AggregatedResult{Spreads: []aggregator.FundingSpread{
		{Asset: asset, Primary: venue.FundingRate{Asset: asset, MarkPrice: mark(markPrice)}},
	}}
}

func TestBuildSnapshotComputesUnrealizedPnlForLongAndShort(t *testing.T) {
	owner := Owner{
		ID:          "p1",
		CashBalance: 5000,
		Positions: []Position{
			{Asset: "BTC", IsLong: true, SizeUsd: 1000, EntryPrice: 50000, TotalFundingCollected: 10},
			{Asset: "ETH", IsLong: false, SizeUsd: 1000, EntryPrice: 3000, TotalFundingCollected: 5},
		},
	}
	marks := map[string]float64{"BTC": 51000, "ETH": 2900}

	snap := buildSnapshot(owner, marks, 123)

	longPnl := (51000.0 - 50000.0) / 50000.0 * 1000
	shortPnl := (3000.0 - 2900.0) / 3000.0 * 1000
	assert.InDelta(t, longPnl+shortPnl, snap.UnrealizedPnl, 1e-6)
	assert.InDelta(t, 15.0, snap.FundingCollected, 1e-9)
	assert.Equal(t, 2, snap.OpenPositions)
	assert.InDelta(t, 5000+1000+longPnl+1000+shortPnl, snap.TotalValue, 1e-6)
	assert.Equal(t, int64(123), snap.SnapshotAt)
}

func TestBuildSnapshotFallsBackToEntryPriceWhenMarkMissing(t *testing.T) {
	owner := Owner{
		ID:          "p1",
		CashBalance: 1000,
		Positions:   []Position{{Asset: "DOGE", IsLong: true, SizeUsd: 500, EntryPrice: 0.1}},
	}

	snap := buildSnapshot(owner, map[string]float64{}, 1)

	assert.InDelta(t, 0.0, snap.UnrealizedPnl, 1e-9)
	assert.InDelta(t, 1000+500, snap.TotalValue, 1e-6)
}

func TestRunInsertsOneSnapshotPerOwnerAcrossBothKinds(t *testing.T) {
	store := &fakeStore{
		paperOwners: []Owner{
			{ID: "portfolio-1", CashBalance: 9000, Positions: []Position{{Asset: "BTC", IsLong: true, SizeUsd: 1000, EntryPrice: 50000}}},
			{ID: "portfolio-2", CashBalance: 10000},
		},
		aiOwners: []Owner{
			{ID: "agent-1", CashBalance: 8000, Positions: []Position{{Asset: "BTC", IsLong: false, SizeUsd: 2000, EntryPrice: 50000}}},
		},
	}
	s := New(store)

	s.Run(context.Background(), resultWithMark("BTC", 51000))

	require.Len(t, store.paperSnaps, 2)
	require.Len(t, store.aiSnaps, 1)
	assert.Equal(t, "portfolio-1", store.paperSnaps[0].OwnerID)
	assert.Equal(t, "portfolio-2", store.paperSnaps[1].OwnerID)
	assert.Equal(t, 0, store.paperSnaps[1].OpenPositions)
	assert.Equal(t, "agent-1", store.aiSnaps[0].OwnerID)
}

func TestRunContinuesAiSamplingWhenPaperListFails(t *testing.T) {
	store := &fakeStore{
		paperListErr: assert.AnError,
		aiOwners:     []Owner{{ID: "agent-1", CashBalance: 1000}},
	}
	s := New(store)

	s.Run(context.Background(), resultWithMark("BTC", 51000))

	assert.Empty(t, store.paperSnaps)
	require.Len(t, store.aiSnaps, 1)
}

func TestRunSkipsAiSamplingWhenAiListFails(t *testing.T) {
	store := &fakeStore{
		paperOwners: []Owner{{ID: "portfolio-1", CashBalance: 1000}},
		aiListErr:   assert.AnError,
	}
	s := New(store)

	s.Run(context.Background(), resultWithMark("BTC", 51000))

	require.Len(t, store.paperSnaps, 1)
	assert.Empty(t, store.aiSnaps)
}
