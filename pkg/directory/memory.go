package directory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/daoboard/notifier/pkg/dao"
)

// MemoryUsers is an in-memory Users implementation.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
	order []string
}

func NewMemoryUsers(users ...User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[string]User, len(users))}
	for _, u := range users {
		m.put(u)
	}
	return m
}

func (m *MemoryUsers) put(u User) {
	if _, ok := m.users[u.ID]; !ok {
		m.order = append(m.order, u.ID)
	}
	m.users[u.ID] = u
}

func (m *MemoryUsers) User(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// ByEmail matches case-insensitively.
func (m *MemoryUsers) ByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if u := m.users[id]; strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// ActiveUsers returns active users in insertion order.
func (m *MemoryUsers) ActiveUsers(context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, id := range m.order {
		if u := m.users[id]; u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MemoryUsers) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, ok := m.users[u.ID]; ok {
		return User{}, ErrUserExists
	}
	for _, existing := range m.users {
		if u.Email != "" && strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrUserExists
		}
	}
	m.put(u)
	return u, nil
}

func (m *MemoryUsers) Activate(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.Active = true
	m.users[id] = u
	return u, nil
}

// MemoryRecords is an in-memory Records implementation.
type MemoryRecords struct {
	mu      sync.RWMutex
	records map[string]dao.Record
}

func NewMemoryRecords(records ...dao.Record) *MemoryRecords {
	m := &MemoryRecords{records: make(map[string]dao.Record, len(records))}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

func (m *MemoryRecords) Record(_ context.Context, id string) (dao.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return dao.Record{}, ErrRecordNotFound
	}
	r.Team = slices.Clone(r.Team)
	r.Tasks = slices.Clone(r.Tasks)
	return r, nil
}

// Put inserts or replaces a record.
func (m *MemoryRecords) Put(r dao.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
}

// Delete removes a record.
func (m *MemoryRecords) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}
