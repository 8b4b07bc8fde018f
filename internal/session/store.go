package session

import (
	"context"
	"sync"
	"time"

	"github.com/ads-marketplace/tiktok-connector/internal/models"
	"go.uber.org/zap"
)

// Store holds connected-account sessions keyed by user id.
type Store interface {
	Get(userID string) (models.Session, bool)
	Set(userID string, s models.Session)
	Delete(userID string)
	// Update applies fn to the stored session atomically. It returns false
	// if no live session exists for userID.
	Update(userID string, fn func(*models.Session)) bool
}

// MemoryStore keeps sessions in process memory. A zero ttl disables expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewMemoryStore(ttl time.Duration, log *zap.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Get(userID string) (models.Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || m.expired(s) {
		return models.Session{}, false
	}
	return clone(s), true
}

func (m *MemoryStore) Set(userID string, s models.Session) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	s.UserID = userID

	m.mu.Lock()
	m.sessions[userID] = clone(s)
	m.mu.Unlock()
}

func (m *MemoryStore) Delete(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func (m *MemoryStore) Update(userID string, fn func(*models.Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || m.expired(s) {
		return false
	}
	s = clone(s)
	fn(&s)
	s.UserID = userID
	m.sessions[userID] = s
	return true
}

// Len returns the number of stored sessions, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Info("expired sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (m *MemoryStore) expired(s models.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.CreatedAt) > m.ttl
}

func clone(s models.Session) models.Session {
	if s.AdvertiserIDs != nil {
		s.AdvertiserIDs = append([]string(nil), s.AdvertiserIDs...)
	}
	if s.Uploads != nil {
		s.Uploads = append([]string(nil), s.Uploads...)
	}
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
