package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"islandstay/internal/config"
	"islandstay/internal/domain"
	"islandstay/internal/models"
	"islandstay/internal/remote"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService keeps remote tokens behind an opaque server-side session id
// and refreshes them shortly before they expire.
type SessionService struct {
	repo          domain.SessionRepository
	auth          domain.Authenticator
	refreshLeeway time.Duration
	loginAttempts int
	loginWindow   time.Duration
	now           func() time.Time
	logger        *zerolog.Logger
}

func NewSessionService(repo domain.SessionRepository, auth domain.Authenticator, cfg config.SessionConfig, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		repo:          repo,
		auth:          auth,
		refreshLeeway: cfg.RefreshLeeway,
		loginAttempts: cfg.LoginAttempts,
		loginWindow:   cfg.LoginWindow,
		now:           time.Now,
		logger:        logger,
	}
}

func (s *SessionService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	key := "login:" + email
	if s.loginAttempts > 0 {
		exceeded, err := s.repo.RateLimitExceeded(ctx, key, s.loginAttempts)
		if err != nil {
			s.logger.Error().Err(err).Msg("login rate limit check failed")
			return nil, err
		}
		if exceeded {
			return nil, ErrTooManyAttempts
		}
	}

	authSession, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		if remote.IsUnauthorized(err) {
			s.logger.Info().Str("email", email).Msg("sign-in rejected")
			s.recordFailedSignIn(ctx, key)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("sign-in failed")
		return nil, err
	}

	user := authSession.User
	if user.ID == "" {
		fetched, err := s.auth.GetUser(ctx, authSession.Credentials())
		if err != nil {
			s.logger.Error().Err(err).Str("email", email).Msg("load signed-in user failed")
			return nil, err
		}
		user = *fetched
	}

	now := s.now()
	session := &models.Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role(),
		Credentials: authSession.Credentials(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if session.Email == "" {
		session.Email = email
	}

	if err := s.repo.SaveSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("user_id", session.UserID).Msg("save session failed")
		return nil, err
	}
	return session, nil
}

// recordFailedSignIn counts a rejected password. Only failures use up the
// per-email budget.
func (s *SessionService) recordFailedSignIn(ctx context.Context, key string) {
	if s.loginAttempts <= 0 {
		return
	}
	if err := s.repo.RecordAttempt(ctx, key, s.loginWindow); err != nil {
		s.logger.Error().Err(err).Msg("record failed sign-in")
	}
}

// SignOut revokes the remote tokens when possible and always drops the local
// session.
func (s *SessionService) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session != nil {
		if err := s.auth.SignOut(ctx, session.Credentials); err != nil {
			s.logger.Warn().Err(err).Str("user_id", session.UserID).Msg("remote sign-out failed")
		}
	}
	return s.repo.DeleteSession(ctx, sessionID)
}

func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.EnsureFresh(ctx, session)
}

// EnsureFresh refreshes the access token when it expires within the leeway.
// A refresh the remote rejects ends the session.
func (s *SessionService) EnsureFresh(ctx context.Context, session *models.Session) (*models.Session, error) {
	if !s.needsRefresh(session.Credentials.AccessToken) {
		return session, nil
	}
	if session.Credentials.RefreshToken == "" {
		s.dropSession(ctx, session)
		return nil, ErrSessionExpired
	}

	authSession, err := s.auth.RefreshSession(ctx, session.Credentials.RefreshToken)
	if err != nil {
		if remote.IsUnauthorized(err) {
			s.dropSession(ctx, session)
			return nil, ErrSessionExpired
		}
		s.logger.Error().Err(err).Str("user_id", session.UserID).Msg("token refresh failed")
		return nil, err
	}

	refreshed := *session
	refreshed.Credentials = authSession.Credentials()
	if refreshed.Credentials.RefreshToken == "" {
		refreshed.Credentials.RefreshToken = session.Credentials.RefreshToken
	}
	refreshed.UpdatedAt = s.now()
	if err := s.repo.SaveSession(ctx, &refreshed); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", session.UserID).Msg("access token refreshed")
	return &refreshed, nil
}

// needsRefresh reads exp without verifying the signature; the remote service
// verifies the token on every call anyway. Tokens that are not JWTs or carry
// no exp are left alone.
func (s *SessionService) needsRefresh(accessToken string) bool {
	if accessToken == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Add(s.refreshLeeway).Before(exp.Time)
}

func (s *SessionService) dropSession(ctx context.Context, session *models.Session) {
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("delete expired session failed")
	}
}
