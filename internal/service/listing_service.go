package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"islandstay/internal/domain"
	"islandstay/internal/models"
	"islandstay/internal/remote"

	"github.com/rs/zerolog"
)

const listingColumns = "*, business_types(name)"

// detailTables maps a normalized business type name to its detail table.
var detailTables = map[string]string{
	models.BusinessTypeHotel:        "hotel_details",
	models.BusinessTypeRestaurant:   "restaurant_details",
	models.BusinessTypeActivity:     "activity_details",
	models.BusinessTypeTour:         "tour_details",
	models.BusinessTypeTourOperator: "tour_operator_details",
}

// DetailsTable returns the table holding type specific attributes for a
// business type name. Matching ignores case and surrounding whitespace.
func DetailsTable(businessType string) string {
	if table, ok := detailTables[strings.ToLower(strings.TrimSpace(businessType))]; ok {
		return table
	}
	return models.TableListingDetail
}

type ListingService struct {
	store  domain.TableQuerier
	logger *zerolog.Logger
}

func NewListingService(store domain.TableQuerier, logger *zerolog.Logger) *ListingService {
	return &ListingService{store: store, logger: logger}
}

// FilterQuery builds the remote query for criteria without running it.
// Empty values and unknown keys add nothing. A price that is not a number
// rejects the whole filter.
func (s *ListingService) FilterQuery(criteria models.FilterCriteria) (*remote.Query, error) {
	q := s.store.From(models.TableListings).
		Select(listingColumns).
		Eq("status", models.ListingStatusActive)

	keys := make([]string, 0, len(criteria))
	for key := range criteria {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := criteria[key]
		if value == "" {
			continue
		}

		switch key {
		case models.FilterQuery:
			q.ILike("title", likePattern(value))
		case models.FilterCategory:
			q.Eq("business_type", value)
		case models.FilterMinPrice:
			price, err := parsePrice(key, value)
			if err != nil {
				return nil, err
			}
			q.Gte("base_price", price)
		case models.FilterMaxPrice:
			price, err := parsePrice(key, value)
			if err != nil {
				return nil, err
			}
			q.Lte("base_price", price)
		case models.FilterLocation:
			q.ILike("address->>city", likePattern(value))
		}
	}

	return q, nil
}

func (s *ListingService) Filter(ctx context.Context, creds models.Credentials, criteria models.FilterCriteria) ([]models.Listing, error) {
	q, err := s.FilterQuery(criteria)
	if err != nil {
		return []models.Listing{}, err
	}
	return s.fetchListings(ctx, creds, q, "filter listings")
}

// Sort returns a reordered copy of listings. Unknown keys return the input
// as is. Listings without a price go last in both price orders.
func (s *ListingService) Sort(listings []models.Listing, sortBy string) []models.Listing {
	var less func(a, b models.Listing) bool

	switch sortBy {
	case models.SortPriceLow:
		less = func(a, b models.Listing) bool {
			if a.BasePrice == nil || b.BasePrice == nil {
				return a.BasePrice != nil && b.BasePrice == nil
			}
			return *a.BasePrice < *b.BasePrice
		}
	case models.SortPriceHigh:
		less = func(a, b models.Listing) bool {
			if a.BasePrice == nil || b.BasePrice == nil {
				return a.BasePrice != nil && b.BasePrice == nil
			}
			return *a.BasePrice > *b.BasePrice
		}
	case models.SortRating:
		less = func(a, b models.Listing) bool {
			return valueOrZero(a.Rating) > valueOrZero(b.Rating)
		}
	case models.SortNewest:
		less = func(a, b models.Listing) bool {
			return a.CreatedAt > b.CreatedAt
		}
	default:
		return listings
	}

	sorted := make([]models.Listing, len(listings))
	copy(sorted, listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// GetDetails returns the type specific record of a listing, or nil when the
// listing, its type or its detail row cannot be found.
func (s *ListingService) GetDetails(ctx context.Context, creds models.Credentials, listingID models.ID) (map[string]any, error) {
	resp, err := s.store.From(models.TableListings).
		Select("business_types(name)").
		Eq("id", listingID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("listing type lookup failed")
		return nil, err
	}

	var row struct {
		BusinessTypes *struct {
			Name string `json:"name"`
		} `json:"business_types"`
	}
	first, ok := resp.First()
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(first, &row); err != nil || row.BusinessTypes == nil {
		s.logger.Warn().Str("listing_id", listingID.String()).Msg("listing has no business type")
		return nil, nil
	}

	table := DetailsTable(row.BusinessTypes.Name)
	resp, err = s.store.From(table).
		Select("*").
		Eq("listing_id", listingID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Str("table", table).Msg("listing details fetch failed")
		return nil, err
	}
	if resp.IsEmpty() {
		return nil, nil
	}

	var details map[string]any
	if err := resp.Decode(&details); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *ListingService) GetAll(ctx context.Context, creds models.Credentials) ([]models.Listing, error) {
	q := s.store.From(models.TableListings).Select(listingColumns)
	return s.fetchListings(ctx, creds, q, "list listings")
}

func (s *ListingService) GetActive(ctx context.Context, creds models.Credentials) ([]models.Listing, error) {
	return s.Filter(ctx, creds, nil)
}

func (s *ListingService) GetByID(ctx context.Context, creds models.Credentials, listingID models.ID) (*models.Listing, error) {
	q := s.store.From(models.TableListings).Select(listingColumns).Eq("id", listingID)
	return s.fetchListing(ctx, creds, q, listingID)
}

func (s *ListingService) GetActiveByID(ctx context.Context, creds models.Credentials, listingID models.ID) (*models.Listing, error) {
	q := s.store.From(models.TableListings).
		Select(listingColumns).
		Eq("id", listingID).
		Eq("status", models.ListingStatusActive)
	return s.fetchListing(ctx, creds, q, listingID)
}

// Search matches query against title and description.
func (s *ListingService) Search(ctx context.Context, creds models.Credentials, query string) ([]models.Listing, error) {
	byTitle, err := s.Filter(ctx, creds, models.FilterCriteria{models.FilterQuery: query})
	if err != nil || query == "" {
		return byTitle, err
	}

	q := s.store.From(models.TableListings).
		Select(listingColumns).
		Eq("status", models.ListingStatusActive).
		ILike("description", likePattern(query))
	byDescription, err := s.fetchListings(ctx, creds, q, "search listings")
	if err != nil {
		return byTitle, err
	}

	seen := make(map[models.ID]struct{}, len(byTitle))
	for _, l := range byTitle {
		seen[l.ID] = struct{}{}
	}
	for _, l := range byDescription {
		if _, ok := seen[l.ID]; !ok {
			byTitle = append(byTitle, l)
		}
	}
	return byTitle, nil
}

func (s *ListingService) BusinessTypes(ctx context.Context, creds models.Credentials) ([]models.BusinessType, error) {
	resp, err := s.store.From(models.TableBusinessTypes).Select("id, name").Order("name", true).Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Msg("list business types failed")
		return []models.BusinessType{}, err
	}

	types := []models.BusinessType{}
	if err := resp.DecodeRows(&types); err != nil {
		return []models.BusinessType{}, err
	}
	return types, nil
}

func (s *ListingService) ListingServices(ctx context.Context, creds models.Credentials, listingID models.ID) ([]models.ListingService, error) {
	resp, err := s.store.From(models.TableServices).Select("*").Eq("listing_id", listingID).Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("list listing services failed")
		return []models.ListingService{}, err
	}

	services := []models.ListingService{}
	if err := resp.DecodeRows(&services); err != nil {
		return []models.ListingService{}, err
	}
	return services, nil
}

func (s *ListingService) fetchListings(ctx context.Context, creds models.Credentials, q *remote.Query, what string) ([]models.Listing, error) {
	resp, err := q.Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Msg(what + " failed")
		return []models.Listing{}, err
	}

	listings := []models.Listing{}
	if err := resp.DecodeRows(&listings); err != nil {
		s.logger.Error().Err(err).Msg(what + ": decode failed")
		return []models.Listing{}, err
	}
	return listings, nil
}

func (s *ListingService) fetchListing(ctx context.Context, creds models.Credentials, q *remote.Query, listingID models.ID) (*models.Listing, error) {
	resp, err := q.MaybeSingle().Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("listing_id", listingID.String()).Msg("get listing failed")
		return nil, err
	}
	if resp.IsEmpty() {
		return nil, nil
	}

	var listing models.Listing
	if err := resp.Decode(&listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func parsePrice(key, value string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidFilter, key, value)
	}
	return price, nil
}

func likePattern(value string) string {
	return "%" + value + "%"
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
