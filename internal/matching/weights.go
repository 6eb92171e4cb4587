package matching

import (
	"sort"
	"sync"
	"time"

	"freightmatch/internal"
)

// Criterion names. Every name present in the active weight table gets exactly
// one entry in a match's criteria breakdown.
const (
	CritOriginCity         = "origin_city"
	CritOriginRegion       = "origin_region"
	CritDestCity           = "dest_city"
	CritDestRegion         = "dest_region"
	CritDistanceSimilarity = "distance_similarity"
	CritServiceType        = "service_type"
	CritCargoCategory      = "cargo_category"
	CritWeightClass        = "weight_class"
	CritWeightSimilarity   = "weight_similarity"
	CritEquipmentType      = "equipment_type"
	CritContainerType      = "container_type"
	CritHazmat             = "hazmat"
	CritRecency            = "recency"
)

type WeightTable map[string]float64

// BaselineWeights is the hard-coded starting table. Sums to 1.
func BaselineWeights() WeightTable {
	return WeightTable{
		CritOriginCity:         0.08,
		CritOriginRegion:       0.07,
		CritDestCity:           0.08,
		CritDestRegion:         0.07,
		CritDistanceSimilarity: 0.13,
		CritServiceType:        0.16,
		CritCargoCategory:      0.10,
		CritWeightClass:        0.06,
		CritWeightSimilarity:   0.06,
		CritEquipmentType:      0.05,
		CritContainerType:      0.04,
		CritHazmat:             0.04,
		CritRecency:            0.06,
	}
}

func (w WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Normalize rescales weights so they sum to 1. A zero-sum table falls back
// to the baseline.
func (w WeightTable) Normalize() WeightTable {
	// Sum in sorted-key order so float rounding cannot vary with map
	// iteration order; scoring must be deterministic for fixed inputs.
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sum float64
	for _, k := range keys {
		if v := w[k]; v > 0 {
			sum += v
		}
	}
	if sum <= 0 {
		return BaselineWeights()
	}
	out := make(WeightTable, len(w))
	for k, v := range w {
		if v < 0 {
			v = 0
		}
		out[k] = v / sum
	}
	return out
}

// AdjustForContext applies read-time overlays for the source quote: region
// weights for international lanes, cargo and weight weights for machinery,
// doubled hazmat weight for hazmat loads. Never persisted; renormalized.
func (w WeightTable) AdjustForContext(attrs internal.NormalizedAttributes) WeightTable {
	out := w.Clone()
	if attrs.International {
		out[CritOriginRegion] *= 1.5
		out[CritDestRegion] *= 1.5
	}
	if attrs.CargoCategory == internal.CargoMachinery {
		out[CritCargoCategory] *= 1.4
		out[CritWeightClass] *= 1.3
		out[CritWeightSimilarity] *= 1.3
	}
	if attrs.CargoCategory == internal.CargoHazmat {
		out[CritHazmat] *= 2.0
	}
	return out.Normalize()
}

// WeightLoader supplies the learned table, if any, from persistence.
type WeightLoader interface {
	GetLearnedWeights() (WeightTable, error)
}

// WeightStore caches the active weight table with a TTL. Refresh is
// idempotent: a redundant concurrent refresh just rewrites the same table.
type WeightStore struct {
	mu       sync.RWMutex
	loader   WeightLoader
	ttl      time.Duration
	now      func() time.Time
	cached   WeightTable
	loadedAt time.Time
}

func NewWeightStore(loader WeightLoader, ttl time.Duration) *WeightStore {
	return &WeightStore{loader: loader, ttl: ttl, now: time.Now}
}

// NewWeightStoreWithClock is for tests that need to control time.
func NewWeightStoreWithClock(loader WeightLoader, ttl time.Duration, now func() time.Time) *WeightStore {
	return &WeightStore{loader: loader, ttl: ttl, now: now}
}

// Get returns the active weight table: the learned table when one is
// persisted and fresh, the baseline otherwise. Callers receive a copy.
func (s *WeightStore) Get() WeightTable {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.loadedAt) < s.ttl {
		cached := s.cached
		s.mu.RUnlock()
		return cached.Clone()
	}
	s.mu.RUnlock()

	table := BaselineWeights()
	if s.loader != nil {
		if learned, err := s.loader.GetLearnedWeights(); err == nil && len(learned) > 0 {
			table = learned.Normalize()
		}
	}

	s.mu.Lock()
	s.cached = table
	s.loadedAt = s.now()
	s.mu.Unlock()

	return table.Clone()
}

// Invalidate drops the cache so the next Get reloads from persistence.
func (s *WeightStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
