// Package cache keeps rendered export artifacts between requests.
package cache

import (
	"context"
	"sync"
	"time"

	applog "saa/internal/log"
)

// Cache is the store the export service renders through.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is a cache that can drop its expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on a fixed interval until stopped.
type Manager struct {
	caches []Cleaner
	logger *applog.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		logger: applog.FromContext(context.Background()).WithComponent(applog.ComponentCache),
		cancel: func() {},
	}
}

// Register must be called before StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.CleanNow(); n > 0 {
					m.logger.Debug("Evicted expired cache entries", applog.FieldCount, n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CleanNow runs one sweep and returns the number of evicted entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		if m.done != nil {
			<-m.done
		}
	})
}
