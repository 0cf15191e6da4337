package querycache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	defaultMemoryLimit = 10000
	sweepInterval      = time.Minute
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Cache used when Redis is not configured. It holds at
// most limit entries; expired ones are dropped on read and by a periodic sweep
// on write.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	gen       uint64
	limit     int
	nextSweep time.Time
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), limit: defaultMemoryLimit, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if now := m.now(); e.expired(now) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.storeLocked(key, value, ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Generation(context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen, nil
}

func (m *Memory) SetIfGeneration(_ context.Context, key string, value []byte, ttl time.Duration, gen uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return ErrStale
	}
	m.storeLocked(key, value, ttl)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, prefixes ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	for key := range m.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				delete(m.entries, key)
				break
			}
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) storeLocked(key string, value []byte, ttl time.Duration) {
	now := m.now()
	if now.After(m.nextSweep) {
		m.sweepLocked(now)
		m.nextSweep = now.Add(sweepInterval)
	}
	if _, ok := m.entries[key]; !ok && m.limit > 0 && len(m.entries) >= m.limit {
		m.sweepLocked(now)
		if len(m.entries) >= m.limit {
			m.evictLocked()
		}
	}

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.entries[key] = e
}

func (m *Memory) sweepLocked(now time.Time) {
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

// evictLocked drops the entry closest to expiry; entries without a TTL go last.
func (m *Memory) evictLocked() {
	var victim string
	var victimExp time.Time
	found := false
	for key, e := range m.entries {
		if !found {
			victim, victimExp, found = key, e.expiresAt, true
			continue
		}
		switch {
		case victimExp.IsZero() && !e.expiresAt.IsZero():
			victim, victimExp = key, e.expiresAt
		case !e.expiresAt.IsZero() && e.expiresAt.Before(victimExp):
			victim, victimExp = key, e.expiresAt
		}
	}
	if found {
		delete(m.entries, victim)
	}
}
