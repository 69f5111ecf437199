package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
)

// MemoryStore keeps aggregates in a map. It backs tests and runs without a
// DATABASE_URL; cloning on both paths keeps callers from sharing state with
// the store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]campaign.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]campaign.State)}
}

func (m *MemoryStore) LoadCampaignAggregate(ctx context.Context, id string) (campaign.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[id]
	if !ok {
		return campaign.State{}, fmt.Errorf("%w: campaign %q", campaign.ErrNotFound, id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) SaveCampaignAggregate(ctx context.Context, s campaign.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[s.CampaignID] = s.Clone()
	return nil
}
