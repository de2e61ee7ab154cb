package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottle keeps state in process. It is used when no Redis URL is
// configured and only holds for a single instance.
type MemoryThrottle struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	cooldowns map[string]time.Time
	failures  map[string]*window
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewMemory(cfg Config) *MemoryThrottle {
	return &MemoryThrottle{
		cfg:       cfg,
		now:       time.Now,
		cooldowns: make(map[string]time.Time),
		failures:  make(map[string]*window),
	}
}

func (m *MemoryThrottle) Cooldown(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if until, ok := m.cooldowns[key]; ok && now.Before(until) {
		return false, nil
	}
	m.cooldowns[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryThrottle) Locked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.live(key)
	return w != nil && w.count >= int64(m.cfg.MaxFailures), nil
}

func (m *MemoryThrottle) Fail(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.live(key)
	if w == nil {
		w = &window{resetAt: m.now().Add(m.cfg.FailureWindow)}
		m.failures[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryThrottle) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}

// live returns the failure window for key, dropping it once elapsed.
// Callers hold mu.
func (m *MemoryThrottle) live(key string) *window {
	w, ok := m.failures[key]
	if !ok {
		return nil
	}
	if !m.now().Before(w.resetAt) {
		delete(m.failures, key)
		return nil
	}
	return w
}
