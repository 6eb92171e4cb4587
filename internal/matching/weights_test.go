package matching

import (
	"errors"
	"testing"
	"time"
)

type fakeLoader struct {
	table WeightTable
	err   error
	calls int
}

func (f *fakeLoader) GetLearnedWeights() (WeightTable, error) {
	f.calls++
	return f.table, f.err
}

func TestWeightStoreCachesWithTTL(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }

	loader := &fakeLoader{table: WeightTable{CritServiceType: 2, CritDistanceSimilarity: 1, CritRecency: 1}}
	store := NewWeightStoreWithClock(loader, 5*time.Minute, clock)

	first := store.Get()
	if loader.calls != 1 {
		t.Fatalf("loader calls = %d, want 1", loader.calls)
	}
	if first[CritServiceType] != 0.5 {
		t.Fatalf("learned table not normalized: %+v", first)
	}

	store.Get()
	if loader.calls != 1 {
		t.Fatalf("fresh cache reloaded: %d calls", loader.calls)
	}

	now = now.Add(6 * time.Minute)
	store.Get()
	if loader.calls != 2 {
		t.Fatalf("expired cache not reloaded: %d calls", loader.calls)
	}

	store.Invalidate()
	store.Get()
	if loader.calls != 3 {
		t.Fatalf("invalidated cache not reloaded: %d calls", loader.calls)
	}
}

func TestWeightStoreFallsBackToBaseline(t *testing.T) {
	loader := &fakeLoader{err: errors.New("db down")}
	store := NewWeightStoreWithClock(loader, time.Minute, fixedNow)

	table := store.Get()
	baseline := BaselineWeights()
	if len(table) != len(baseline) {
		t.Fatalf("fallback table differs from baseline: %+v", table)
	}
	for k, v := range baseline {
		if table[k] != v {
			t.Fatalf("fallback weight %s = %v, want %v", k, table[k], v)
		}
	}

	// Callers get copies: mutating one must not poison the cache.
	table[CritServiceType] = 99
	if again := store.Get(); again[CritServiceType] == 99 {
		t.Fatalf("cache shares memory with callers")
	}
}
