package store

import (
	"context"
	"sync"
)

// Memory keeps records in process; state is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Load(_ context.Context, namespace, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[namespace+"/"+key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Save(_ context.Context, namespace, key string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[namespace+"/"+key] = rec
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, namespace+"/"+key)
	return nil
}
