package repository

import (
	"context"
	"sync"
	"time"

	"islandstay/internal/domain"
	"islandstay/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionRepository uses primary until it fails, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isDown {
		return true
	}
	// Пробуем вернуться к основному хранилищу раз в минуту
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) markResult(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		if r.isDown {
			r.logger.Info().Msg("primary session repository recovered")
		}
		r.isDown = false
		return
	}
	if !r.isDown {
		r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = r.now()
}

// IsDown reports whether calls are currently served by the fallback.
func (r *FailoverSessionRepository) IsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, id)
		r.markResult(err)
		if err == nil && session != nil {
			return session, nil
		}
		// err == nil: the session may have been saved to fallback during an outage
	}
	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		r.markResult(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	// Сессия могла попасть в fallback, пока primary был недоступен
	fallbackErr := r.fallback.DeleteSession(ctx, id)
	if r.usePrimary() {
		err := r.primary.DeleteSession(ctx, id)
		r.markResult(err)
		if err == nil {
			return nil
		}
	}
	return fallbackErr
}

func (r *FailoverSessionRepository) RateLimitExceeded(ctx context.Context, key string, limit int) (bool, error) {
	if r.usePrimary() {
		exceeded, err := r.primary.RateLimitExceeded(ctx, key, limit)
		r.markResult(err)
		if err == nil {
			return exceeded, nil
		}
	}
	return r.fallback.RateLimitExceeded(ctx, key, limit)
}

func (r *FailoverSessionRepository) RecordAttempt(ctx context.Context, key string, window time.Duration) error {
	if r.usePrimary() {
		err := r.primary.RecordAttempt(ctx, key, window)
		r.markResult(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.RecordAttempt(ctx, key, window)
}
