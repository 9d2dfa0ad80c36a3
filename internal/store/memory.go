package store

import (
	"context"
	"sync"
)

// MemoryProgress is an in-memory ProgressRepo, used in tests and as the
// throwaway store for ad-hoc preloaded sessions.
type MemoryProgress struct {
	mu   sync.Mutex
	data map[Key]*ChapterProgress
}

// NewMemoryProgress creates an empty in-memory progress repo.
func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{data: make(map[Key]*ChapterProgress)}
}

var _ ProgressRepo = (*MemoryProgress)(nil)

func (m *MemoryProgress) Get(_ context.Context, key Key) (*ChapterProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	cp := ChapterProgress{LastIndex: p.LastIndex, History: make(map[int]bool, len(p.History))}
	for k, v := range p.History {
		cp.History[k] = v
	}
	return &cp, nil
}

func (m *MemoryProgress) SetOutcome(_ context.Context, key Key, index int, correct bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(key).History[index] = correct
	return nil
}

func (m *MemoryProgress) ClearOutcome(_ context.Context, key Key, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ensure(key).History, index)
	return nil
}

func (m *MemoryProgress) SetLastIndex(_ context.Context, key Key, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(key).LastIndex = index
	return nil
}

func (m *MemoryProgress) Reset(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.ensure(key)
	p.LastIndex = 0
	p.History = make(map[int]bool)
	return nil
}

func (m *MemoryProgress) DoneCount(_ context.Context, subject, category string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[Key{Subject: subject, Category: category}]
	if !ok {
		return 0, nil
	}
	return len(p.History), nil
}

func (m *MemoryProgress) ensure(key Key) *ChapterProgress {
	p, ok := m.data[key]
	if !ok {
		p = &ChapterProgress{History: make(map[int]bool)}
		m.data[key] = p
	}
	return p
}

// MemoryPrefs is an in-memory PrefsRepo.
type MemoryPrefs struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryPrefs creates an empty in-memory prefs repo.
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{data: make(map[string]string)}
}

var _ PrefsRepo = (*MemoryPrefs)(nil)

func (m *MemoryPrefs) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemoryPrefs) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
