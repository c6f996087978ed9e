package repository

import (
	"context"
	"sync"
	"time"

	"islandstay/internal/models"
)

// MemorySessionRepository keeps sessions in process. Used when Redis is not
// configured or unreachable; sessions do not survive a restart.
type MemorySessionRepository struct {
	mu         sync.Mutex
	sessions   map[string]memorySession
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
	lastSweep  time.Time
}

// sweepInterval bounds how often expired entries are pruned on writes.
const sweepInterval = time.Minute

type memorySession struct {
	session   models.Session
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions:   make(map[string]memorySession),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return nil, nil
	}
	// sliding TTL, as in Redis
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
		r.sessions[id] = entry
	}
	session := entry.session
	return &session, nil
}

func (r *MemorySessionRepository) SaveSession(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	r.sessions[session.ID] = memorySession{session: *session, expiresAt: now.Add(r.ttl)}
	return nil
}

func (r *MemorySessionRepository) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) RateLimitExceeded(_ context.Context, key string, limit int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || r.now().After(entry.expiresAt) {
		return false, nil
	}
	return entry.count >= limit, nil
}

func (r *MemorySessionRepository) RecordAttempt(_ context.Context, key string, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return nil
}

// sweepLocked drops expired sessions and rate limit windows. Caller holds mu.
func (r *MemorySessionRepository) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	if r.ttl > 0 {
		for id, entry := range r.sessions {
			if now.After(entry.expiresAt) {
				delete(r.sessions, id)
			}
		}
	}
	for key, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, key)
		}
	}
}
