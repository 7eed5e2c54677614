package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTooManySessions is returned when the session cap is reached.
var ErrTooManySessions = errors.New("engine: session limit reached")

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = 5 * time.Minute
	defaultMaxSessions   = 10000
)

// Manager owns the live session map. Idle sessions are swept in the
// background after their TTL expires.
type Manager struct {
	agent *Agent
	log   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	maxSessions   int

	stopSweep chan struct{}
	closeOnce sync.Once
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets how long an idle session survives.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions are collected.
func WithSweepInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.sweepInterval = interval
		}
	}
}

// WithMaxSessions caps concurrent live sessions.
func WithMaxSessions(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

// NewManager starts a manager and its background sweep.
func NewManager(agent *Agent, log *zap.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		agent:         agent,
		log:           log,
		sessions:      make(map[string]*Session),
		ttl:           defaultSessionTTL,
		sweepInterval: defaultSweepInterval,
		maxSessions:   defaultMaxSessions,
		stopSweep:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.sweepLoop()
	return m
}

// GetOrCreate returns the session for id, creating it if absent.
func (m *Manager) GetOrCreate(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}
	s = m.agent.NewSession(id)
	m.sessions[id] = s
	m.log.Info("session created", zap.String("session_id", id))
	return s, nil
}

// Get returns the session for id, or nil if unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Delete removes a session. Returns whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// IDs lists live session ids, sorted for stable output.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the background sweep. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.stopSweep) })
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopSweep:
			return
		}
	}
}

func (m *Manager) sweep() {
	cutoff := m.agent.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info("expired sessions swept", zap.Int("removed", removed), zap.Int("remaining", len(m.sessions)))
	}
}
