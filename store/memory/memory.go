// Package memory provides an in-memory CriteriaStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	rows map[loyalty.Tier]store.CriteriaRecord
	now  func() time.Time
}

var _ store.CriteriaStore = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		rows: make(map[loyalty.Tier]store.CriteriaRecord),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// List returns every row in tier order.
func (m *Memory) List(_ context.Context) ([]store.CriteriaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.CriteriaRecord, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

func (m *Memory) Get(_ context.Context, tier loyalty.Tier) (*store.CriteriaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[tier]
	if !ok {
		return nil, store.ErrCriteriaNotFound
	}
	return &r, nil
}

func (m *Memory) Save(_ context.Context, rec store.CriteriaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkTier(rec); err != nil {
		return err
	}
	m.saveLocked(rec)
	return nil
}

// SaveAll replaces rows atomically; no reader observes a partial update.
func (m *Memory) SaveAll(_ context.Context, recs []store.CriteriaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		if err := checkTier(rec); err != nil {
			return err
		}
	}
	for _, rec := range recs {
		m.saveLocked(rec)
	}
	return nil
}

func (m *Memory) SeedDefaults(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range store.DefaultRecords() {
		if _, exists := m.rows[rec.Tier]; !exists {
			m.saveLocked(rec)
		}
	}
	return nil
}

// checkTier matches the sqlite store, which cannot key a row without a
// known tier name.
func checkTier(rec store.CriteriaRecord) error {
	if !rec.Tier.IsValid() {
		return fmt.Errorf("failed to save tier criteria: unknown tier %d", int(rec.Tier))
	}
	return nil
}

func (m *Memory) saveLocked(rec store.CriteriaRecord) {
	if rec.Description == "" {
		rec.Description = rec.GenerateDescription()
	}
	rec.Version = m.rows[rec.Tier].Version + 1
	rec.UpdatedAt = m.now()
	m.rows[rec.Tier] = rec
}
