package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"islandstay/internal/domain"
	"islandstay/internal/events"
	"islandstay/internal/models"

	"github.com/rs/zerolog"
)

// updatableListingFields maps accepted update keys to their column names.
var updatableListingFields = map[string]string{
	"title":        "title",
	"description":  "description",
	"address":      "address",
	"latitude":     "lattitude",
	"lattitude":    "lattitude",
	"longitude":    "longitude",
	"image_urls":   "image_urls",
	"base_price":   "base_price",
	"status":       "status",
	"listing_data": "listing_data",
}

// nullableListingFields may be cleared by sending null.
var nullableListingFields = map[string]bool{
	"description": true,
	"address":     true,
	"latitude":    true,
	"lattitude":   true,
	"longitude":   true,
	"base_price":  true,
}

// BusinessService manages listings owned by the signed-in business user.
type BusinessService struct {
	store    domain.TableQuerier
	eventBus domain.EventPublisher
	creators map[string]ListingCreator
	logger   *zerolog.Logger
}

func NewBusinessService(store domain.TableQuerier, eventBus domain.EventPublisher, logger *zerolog.Logger, creators ...ListingCreator) *BusinessService {
	if len(creators) == 0 {
		creators = DefaultCreators()
	}
	byType := make(map[string]ListingCreator, len(creators))
	for _, c := range creators {
		byType[c.BusinessType()] = c
	}
	return &BusinessService{
		store:    store,
		eventBus: eventBus,
		creators: byType,
		logger:   logger,
	}
}

// CurrentBusiness returns the business profile of userID or nil if the user
// has none.
func (s *BusinessService) CurrentBusiness(ctx context.Context, creds models.Credentials, userID string) (*models.Business, error) {
	resp, err := s.store.From(models.TableBusinesses).
		Select("*").
		Eq("user_id", userID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("get business failed")
		return nil, err
	}
	if resp.IsEmpty() {
		return nil, nil
	}

	var business models.Business
	if err := resp.Decode(&business); err != nil {
		return nil, err
	}
	return &business, nil
}

func (s *BusinessService) BusinessListings(ctx context.Context, creds models.Credentials, businessID models.ID) ([]models.Listing, error) {
	resp, err := s.store.From(models.TableListings).
		Select(listingColumns).
		Eq("business_id", businessID).
		Order("created_at", false).
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("business_id", businessID.String()).Msg("list business listings failed")
		return []models.Listing{}, err
	}

	listings := []models.Listing{}
	if err := resp.DecodeRows(&listings); err != nil {
		return []models.Listing{}, err
	}
	return listings, nil
}

func (s *BusinessService) CreateListing(ctx context.Context, creds models.Credentials, userID, kind string, req models.NewListing) (*models.Listing, error) {
	creator, ok := s.creators[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBusinessType, kind)
	}
	if err := validateStruct(ErrInvalidListing, req); err != nil {
		return nil, err
	}

	data, err := creator.ListingData(req.Details)
	if err != nil {
		return nil, err
	}

	business, err := s.CurrentBusiness(ctx, creds, userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrNoBusiness
	}

	typeID, err := s.businessTypeID(ctx, creds, creator.BusinessType())
	if err != nil {
		return nil, err
	}

	imageURLs := req.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	row := map[string]any{
		"business_id":   business.ID,
		"business_type": typeID,
		"title":         req.Title,
		"description":   req.Description,
		"address":       req.Address,
		"lattitude":     req.Latitude,
		"longitude":     req.Longitude,
		"image_urls":    imageURLs,
		"base_price":    req.BasePrice,
		"listing_data":  data,
	}

	resp, err := s.store.From(models.TableListings).Insert(row).Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("business_id", business.ID.String()).Str("kind", kind).Msg("create listing failed")
		return nil, err
	}

	listing, err := firstListing(resp.Rows())
	if err != nil || listing == nil {
		return listing, err
	}

	s.publishEvent(events.EventListingCreated, listing, business, userID)
	return listing, nil
}

// UpdateListing applies fields to a listing of the user's business. A listing
// that does not exist or belongs to another business yields (nil, nil).
func (s *BusinessService) UpdateListing(ctx context.Context, creds models.Credentials, userID string, listingID models.ID, fields map[string]any) (*models.Listing, error) {
	update, req, err := listingUpdate(fields)
	if err != nil {
		return nil, err
	}

	business, err := s.CurrentBusiness(ctx, creds, userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrNoBusiness
	}

	if req.ListingData != nil {
		data, found, err := s.updatedListingData(ctx, creds, business.ID, listingID, req.ListingData)
		if err != nil || !found {
			return nil, err
		}
		update["listing_data"] = data
	}

	resp, err := s.store.From(models.TableListings).
		Update(update).
		Eq("id", listingID).
		Eq("business_id", business.ID).
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("update listing failed")
		return nil, err
	}

	listing, err := firstListing(resp.Rows())
	if err != nil || listing == nil {
		return listing, err
	}
	s.publishEvent(events.EventListingUpdated, listing, business, userID)
	return listing, nil
}

// listingUpdate validates fields and maps them to columns. listing_data is
// left out of the column map: it has to pass the listing type's creator first.
func listingUpdate(fields map[string]any) (map[string]any, models.ListingUpdate, error) {
	var req models.ListingUpdate
	if len(fields) == 0 {
		return nil, req, fmt.Errorf("%w: nothing to update", ErrInvalidListing)
	}
	for key, value := range fields {
		if _, ok := updatableListingFields[key]; !ok {
			return nil, req, fmt.Errorf("%w: field %q cannot be updated", ErrInvalidListing, key)
		}
		if value == nil && !nullableListingFields[key] {
			return nil, req, fmt.Errorf("%w: field %q cannot be null", ErrInvalidListing, key)
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, req, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, req, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	if err := validateStruct(ErrInvalidListing, req); err != nil {
		return nil, req, err
	}

	update := make(map[string]any, len(fields))
	for key, value := range fields {
		if key == "listing_data" {
			continue
		}
		update[updatableListingFields[key]] = value
	}
	return update, req, nil
}

// updatedListingData runs data through the creator of the listing's business
// type. found is false when the listing is not one of the business's.
func (s *BusinessService) updatedListingData(ctx context.Context, creds models.Credentials, businessID, listingID models.ID, data map[string]any) (map[string]any, bool, error) {
	resp, err := s.store.From(models.TableListings).
		Select("id, business_types(name)").
		Eq("id", listingID).
		Eq("business_id", businessID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("get listing type failed")
		return nil, false, err
	}
	if resp.IsEmpty() {
		return nil, false, nil
	}

	var listing models.Listing
	if err := resp.Decode(&listing); err != nil {
		return nil, false, err
	}
	creator, ok := s.creators[strings.ToLower(strings.TrimSpace(listing.BusinessTypeName))]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownBusinessType, listing.BusinessTypeName)
	}
	validated, err := creator.ListingData(data)
	if err != nil {
		return nil, false, err
	}
	return validated, true, nil
}

func (s *BusinessService) DeleteListing(ctx context.Context, creds models.Credentials, userID string, listingID models.ID) (*models.Listing, error) {
	business, err := s.CurrentBusiness(ctx, creds, userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrNoBusiness
	}

	resp, err := s.store.From(models.TableListings).
		Delete().
		Eq("id", listingID).
		Eq("business_id", business.ID).
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("delete listing failed")
		return nil, err
	}

	listing, err := firstListing(resp.Rows())
	if err != nil || listing == nil {
		return listing, err
	}
	s.publishEvent(events.EventListingDeleted, listing, business, userID)
	return listing, nil
}

// CheckBusinessType returns ErrUnknownBusinessType unless typeID names a row
// of business_types.
func (s *BusinessService) CheckBusinessType(ctx context.Context, creds models.Credentials, typeID models.ID) error {
	resp, err := s.store.From(models.TableBusinessTypes).
		Select("id").
		Eq("id", typeID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("business_type_id", typeID.String()).Msg("business type lookup failed")
		return err
	}
	if resp.IsEmpty() {
		return fmt.Errorf("%w: business type %q does not exist", ErrUnknownBusinessType, typeID)
	}
	return nil
}

// RegisterBusiness creates the business profile of a freshly signed-up user.
func (s *BusinessService) RegisterBusiness(ctx context.Context, creds models.Credentials, userID string, req models.BusinessRegistration) (*models.Business, error) {
	if err := validateStruct(ErrInvalidRegistration, req); err != nil {
		return nil, err
	}
	if err := s.CheckBusinessType(ctx, creds, req.BusinessTypeID); err != nil {
		return nil, err
	}

	row := map[string]any{
		"user_id":          userID,
		"business_name":    req.BusinessName,
		"business_email":   req.BusinessEmail,
		"business_type_id": req.BusinessTypeID,
	}
	resp, err := s.store.From(models.TableBusinesses).Insert(row).Single().Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("create business failed")
		return nil, err
	}

	var business models.Business
	if err := resp.Decode(&business); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("business_id", business.ID.String()).Msg("business registered")
	return &business, nil
}

func (s *BusinessService) businessTypeID(ctx context.Context, creds models.Credentials, name string) (models.ID, error) {
	resp, err := s.store.From(models.TableBusinessTypes).
		Select("id, name").
		ILike("name", name).
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("business_type", name).Msg("business type lookup failed")
		return "", err
	}

	var types []models.BusinessType
	if err := resp.DecodeRows(&types); err != nil {
		return "", err
	}
	if len(types) == 0 {
		return "", fmt.Errorf("%w: %q is not configured", ErrUnknownBusinessType, name)
	}
	return types[0].ID, nil
}

func (s *BusinessService) publishEvent(eventType string, listing *models.Listing, business *models.Business, userID string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ListingEventPayload{
		ListingID:    listing.ID.String(),
		BusinessID:   business.ID.String(),
		BusinessType: listing.BusinessType,
		City:         listing.City(),
		UserID:       userID,
		ChangedAt:    time.Now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("listing_id", payload.ListingID).Msg("publish event error")
	}
}

func firstListing(rows []json.RawMessage) (*models.Listing, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var listing models.Listing
	if err := json.Unmarshal(rows[0], &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}
