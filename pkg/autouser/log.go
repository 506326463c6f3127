package autouser

import (
	"sync"
	"time"

	"github.com/daoboard/notifier/pkg/mailaddr"
)

// Capacity is the number of entries a Log retains.
const Capacity = 200

// Action is what happened to an account.
type Action string

const (
	ActionCreated       Action = "created"
	ActionReactivated   Action = "reactivated"
	ActionAlreadyActive Action = "already_active"
	ActionError         Action = "error"
)

// Entry is one audit record. Email is always masked.
type Entry struct {
	Time        time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	Email       string    `json:"email"`
	RecordID    string    `json:"daoId,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// Log is a concurrency-safe ring buffer of entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{entries: make([]Entry, Capacity), now: time.Now}
}

// Append masks the entry's email, stamps it when Time is zero and stores
// it, evicting the oldest entry when the log is full.
func (l *Log) Append(e Entry) Entry {
	e.Email = mailaddr.Mask(e.Email)

	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Time.IsZero() {
		e.Time = l.now().UTC()
	}
	l.entries[l.next] = e
	l.next = (l.next + 1) % Capacity
	if l.next == 0 {
		l.full = true
	}
	return e
}

// List returns the entries newest first.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = Capacity
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.entries[(l.next-i+Capacity)%Capacity])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return Capacity
	}
	return l.next
}

// Clear drops every entry and returns how many were dropped.
func (l *Log) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.next
	if l.full {
		n = Capacity
	}
	clear(l.entries)
	l.next = 0
	l.full = false
	return n
}
