package domain

import (
	"context"
	"time"

	"islandstay/internal/models"
	"islandstay/internal/remote"
)

// TableQuerier starts table queries against the remote store.
type TableQuerier interface {
	From(table string) *remote.Query
}

// ProcedureCaller invokes remote stored procedures.
type ProcedureCaller interface {
	RPC(ctx context.Context, creds models.Credentials, fn string, params any) (*remote.Response, error)
}

// RemoteStore is everything the services need from the hosted backend.
type RemoteStore interface {
	TableQuerier
	ProcedureCaller
	Ping(ctx context.Context) error
}

// TokenRefresher trades a refresh token for a fresh token pair.
type TokenRefresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error)
}

// Authenticator is the remote auth surface used for sign-in and sign-out.
type Authenticator interface {
	TokenRefresher
	SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error)
	GetUser(ctx context.Context, creds models.Credentials) (*models.RemoteUser, error)
	SignOut(ctx context.Context, creds models.Credentials) error
}

// Registrar creates remote accounts and starts password recovery.
type Registrar interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthSession, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	RateLimitExceeded(ctx context.Context, key string, limit int) (bool, error)
	RecordAttempt(ctx context.Context, key string, window time.Duration) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, creds models.Credentials, req models.BookingRequest) (models.ID, error)
	ConfirmBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (bool, error)
	CancelBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (bool, error)
	GetBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (*models.Booking, error)
	UserBookings(ctx context.Context, creds models.Credentials, userID string) ([]models.Booking, error)
}

type ListingService interface {
	Filter(ctx context.Context, creds models.Credentials, criteria models.FilterCriteria) ([]models.Listing, error)
	Sort(listings []models.Listing, sortBy string) []models.Listing
	GetDetails(ctx context.Context, creds models.Credentials, listingID models.ID) (map[string]any, error)
	GetAll(ctx context.Context, creds models.Credentials) ([]models.Listing, error)
	GetActive(ctx context.Context, creds models.Credentials) ([]models.Listing, error)
	GetByID(ctx context.Context, creds models.Credentials, listingID models.ID) (*models.Listing, error)
	GetActiveByID(ctx context.Context, creds models.Credentials, listingID models.ID) (*models.Listing, error)
	Search(ctx context.Context, creds models.Credentials, query string) ([]models.Listing, error)
	BusinessTypes(ctx context.Context, creds models.Credentials) ([]models.BusinessType, error)
	ListingServices(ctx context.Context, creds models.Credentials, listingID models.ID) ([]models.ListingService, error)
}

type BusinessService interface {
	CurrentBusiness(ctx context.Context, creds models.Credentials, userID string) (*models.Business, error)
	BusinessListings(ctx context.Context, creds models.Credentials, businessID models.ID) ([]models.Listing, error)
	CreateListing(ctx context.Context, creds models.Credentials, userID, kind string, req models.NewListing) (*models.Listing, error)
	UpdateListing(ctx context.Context, creds models.Credentials, userID string, listingID models.ID, fields map[string]any) (*models.Listing, error)
	DeleteListing(ctx context.Context, creds models.Credentials, userID string, listingID models.ID) (*models.Listing, error)
	CheckBusinessType(ctx context.Context, creds models.Credentials, typeID models.ID) error
	RegisterBusiness(ctx context.Context, creds models.Credentials, userID string, req models.BusinessRegistration) (*models.Business, error)
}

type AccountService interface {
	Register(ctx context.Context, req models.Registration) (*models.RemoteUser, error)
	RegisterBusiness(ctx context.Context, req models.BusinessRegistration) (*models.Business, error)
	RequestPasswordReset(ctx context.Context, email string) error
}

type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (*models.Session, error)
	EnsureFresh(ctx context.Context, session *models.Session) (*models.Session, error)
}
