package service

import (
	"context"
	"fmt"
	"strings"

	"islandstay/internal/domain"
	"islandstay/internal/models"

	"github.com/rs/zerolog"
)

// AccountService signs up regular and business users on the remote auth
// service and creates their profile rows.
type AccountService struct {
	auth     domain.Registrar
	store    domain.TableQuerier
	business domain.BusinessService
	logger   *zerolog.Logger
}

func NewAccountService(auth domain.Registrar, store domain.TableQuerier, business domain.BusinessService, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		auth:     auth,
		store:    store,
		business: business,
		logger:   logger,
	}
}

// Register signs up a regular user. The profile row is best effort: the
// account exists once sign-up succeeds.
func (s *AccountService) Register(ctx context.Context, req models.Registration) (*models.RemoteUser, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(ErrInvalidRegistration, req); err != nil {
		return nil, err
	}

	session, err := s.auth.SignUp(ctx, req.Email, req.Password, req.SignUpMetadata())
	if err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("sign-up failed")
		return nil, err
	}
	user := session.User

	profile := map[string]any{
		"id":                user.ID,
		"first_name":        req.FirstName,
		"last_name":         req.LastName,
		"interests_handled": false,
	}
	if _, err := s.store.From(models.TableProfiles).Insert(profile).Execute(ctx, session.Credentials()); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("create profile failed")
	}

	s.logger.Info().Str("user_id", user.ID).Bool("confirmed", session.AccessToken != "").Msg("user registered")
	return &user, nil
}

// RegisterBusiness signs up a business user and creates its business row.
// The business row needs the new user's token, so a sign-up that still awaits
// email confirmation ends with ErrSignUpPending.
func (s *AccountService) RegisterBusiness(ctx context.Context, req models.BusinessRegistration) (*models.Business, error) {
	req.BusinessEmail = strings.ToLower(strings.TrimSpace(req.BusinessEmail))
	if err := validateStruct(ErrInvalidRegistration, req); err != nil {
		return nil, err
	}
	// тип проверяем до регистрации, иначе останется пользователь без бизнеса
	if err := s.business.CheckBusinessType(ctx, models.Credentials{}, req.BusinessTypeID); err != nil {
		return nil, err
	}

	session, err := s.auth.SignUp(ctx, req.BusinessEmail, req.Password, req.SignUpMetadata())
	if err != nil {
		s.logger.Error().Err(err).Str("email", req.BusinessEmail).Msg("business sign-up failed")
		return nil, err
	}
	if session.AccessToken == "" {
		s.logger.Info().Str("user_id", session.User.ID).Msg("business sign-up awaits confirmation")
		return nil, fmt.Errorf("%w: confirm %s before the business can be created", ErrSignUpPending, req.BusinessEmail)
	}

	return s.business.RegisterBusiness(ctx, session.Credentials(), session.User.ID, req)
}

func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validatorInstance().Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	if err := s.auth.ResetPasswordForEmail(ctx, email); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("password reset request failed")
		return err
	}
	return nil
}
