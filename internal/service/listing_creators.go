package service

import (
	"encoding/json"
	"fmt"

	"islandstay/internal/models"
)

// ListingCreator turns the type specific part of a creation request into
// the listing_data payload stored with the listing.
type ListingCreator interface {
	BusinessType() string
	ListingData(details map[string]any) (map[string]any, error)
}

type hotelCreator struct{}

func (hotelCreator) BusinessType() string { return models.BusinessTypeHotel }

func (hotelCreator) ListingData(details map[string]any) (map[string]any, error) {
	return typedListingData[models.HotelDetails](details)
}

type restaurantCreator struct{}

func (restaurantCreator) BusinessType() string { return models.BusinessTypeRestaurant }

func (restaurantCreator) ListingData(details map[string]any) (map[string]any, error) {
	return typedListingData[models.RestaurantDetails](details)
}

type tourCreator struct{}

func (tourCreator) BusinessType() string { return models.BusinessTypeTour }

func (tourCreator) ListingData(details map[string]any) (map[string]any, error) {
	return typedListingData[models.TourDetails](details)
}

type activityCreator struct{}

func (activityCreator) BusinessType() string { return models.BusinessTypeActivity }

func (activityCreator) ListingData(details map[string]any) (map[string]any, error) {
	return typedListingData[models.ActivityDetails](details)
}

// DefaultCreators returns the creators for every supported business type.
func DefaultCreators() []ListingCreator {
	return []ListingCreator{hotelCreator{}, restaurantCreator{}, tourCreator{}, activityCreator{}}
}

// typedListingData decodes details into T, validates it and encodes it back
// so only known fields reach the remote store.
func typedListingData[T any](details map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	var typed T
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}
	if err := validateStruct(ErrInvalidListing, typed); err != nil {
		return nil, err
	}

	raw, err = json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
