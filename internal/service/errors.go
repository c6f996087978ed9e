package service

import "errors"

var (
	ErrInvalidBooking      = errors.New("invalid booking request")
	ErrInvalidFilter       = errors.New("invalid listing filter")
	ErrInvalidListing      = errors.New("invalid listing")
	ErrUnknownBusinessType = errors.New("unknown business type")
	ErrNoBusiness          = errors.New("no business profile for user")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTooManyAttempts     = errors.New("too many sign-in attempts")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrSignUpPending       = errors.New("sign-up awaits email confirmation")
)
