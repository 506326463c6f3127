package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// SnapshotStore persists queued jobs so they survive a restart.
type SnapshotStore interface {
	Load(ctx context.Context) ([]Job, error)
	Save(ctx context.Context, job Job) error
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// FileSnapshot keeps the queue as a JSON array in one file. Writes go
// through a temporary file and rename, serialized by a mutex.
type FileSnapshot struct {
	path string
	mu   sync.Mutex
}

// NewFileSnapshot returns a snapshot stored at path. Parent directories
// are created on first write.
func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{path: path}
}

// Load returns persisted jobs in enqueue order. A missing or malformed
// file yields an empty queue.
func (s *FileSnapshot) Load(context.Context) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

func (s *FileSnapshot) Save(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.read()
	jobs = slices.DeleteFunc(jobs, func(j Job) bool { return j.ID == job.ID })
	return s.write(append(jobs, job))
}

func (s *FileSnapshot) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.read()
	n := len(jobs)
	jobs = slices.DeleteFunc(jobs, func(j Job) bool { return j.ID == id })
	if len(jobs) == n {
		return nil
	}
	return s.write(jobs)
}

func (s *FileSnapshot) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read()), nil
}

func (s *FileSnapshot) read() []Job {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var jobs []Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil
	}
	return jobs
}

func (s *FileSnapshot) write(jobs []Job) error {
	if jobs == nil {
		jobs = []Job{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return nil
}

// MemorySnapshot keeps the queue in memory. Nothing survives a restart.
type MemorySnapshot struct {
	mu   sync.Mutex
	jobs []Job
}

func NewMemorySnapshot(jobs ...Job) *MemorySnapshot {
	return &MemorySnapshot{jobs: slices.Clone(jobs)}
}

func (s *MemorySnapshot) Load(context.Context) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs), nil
}

func (s *MemorySnapshot) Save(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(slices.DeleteFunc(s.jobs, func(j Job) bool { return j.ID == job.ID }), job)
	return nil
}

func (s *MemorySnapshot) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = slices.DeleteFunc(s.jobs, func(j Job) bool { return j.ID == id })
	return nil
}

func (s *MemorySnapshot) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs), nil
}

