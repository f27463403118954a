// Package session manages compile session lifecycle.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/vegalite/internal/spec"
)

// Session holds per-connection compile state.
type Session struct {
	ID           string       `json:"id"`
	Config       *spec.Config `json:"-"`
	Compiles     int          `json:"compiles"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActiveAt time.Time    `json:"last_active_at"`

	mu   sync.Mutex
	done chan struct{}
	end  sync.Once
}

// NewSession creates a session compiling with the default configuration.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		Config:       spec.DefaultConfig(),
		CreatedAt:    now,
		LastActiveAt: now,
		done:         make(chan struct{}),
	}
}

// Done is closed once the session is removed from its manager.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.end.Do(func() { close(s.done) })
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// RecordCompile counts a compile and returns the configuration to use.
func (s *Session) RecordCompile() *spec.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Compiles++
	s.LastActiveAt = time.Now()
	return s.Config
}

// Configure overlays raw onto the session's configuration.
func (s *Session) Configure(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.Config.Overlay(raw)
	if err != nil {
		return err
	}
	s.Config = cfg
	s.LastActiveAt = time.Now()
	return nil
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.LastActiveAt) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create creates a new session and returns it.
func (m *Manager) Create() *Session {
	s := NewSession()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session and closes its Done channel.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions. Called periodically.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
			s.close()
		}
	}
}
