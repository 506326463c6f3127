package notifications

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps persisted notifications in process memory.
// It is meant for tests and single-instance development setups.
type MemoryStorage struct {
	mu    sync.Mutex
	items []Notification
}

func NewMemoryStorage(items ...Notification) *MemoryStorage {
	m := &MemoryStorage{}
	for _, n := range items {
		m.items = append(m.items, n.clone())
	}
	return m
}

func (m *MemoryStorage) Insert(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n.clone())
	return nil
}

func (m *MemoryStorage) AddReader(_ context.Context, userID string, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if slices.Contains(ids, m.items[i].ID) && !slices.Contains(m.items[i].ReadBy, userID) {
			m.items[i].ReadBy = append(m.items[i].ReadBy, userID)
		}
	}
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

func (m *MemoryStorage) Recent(_ context.Context, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, min(limit, len(m.items)))
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[i].clone())
	}
	return out, nil
}

// Len returns the number of stored notifications.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
