package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"islandstay/internal/events"
	"islandstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	businessesPath    = "/rest/v1/businesses"
	businessTypesPath = "/rest/v1/business_types"
)

func hotelListingRequest() models.NewListing {
	lat, lng := 18.27, -78.35
	return models.NewListing{
		Title:       "Cliffside Villas",
		Description: "Rooms over the water",
		Address:     models.Address{Street: "1 West End Rd", City: "Negril", Country: "Jamaica"},
		Latitude:    &lat,
		Longitude:   &lng,
		ImageURLs:   []string{"https://cdn.example.com/v1.jpg"},
		BasePrice:   price(180),
		Details: map[string]any{
			"hotel_type":      "villa",
			"room_count":      12,
			"available_rooms": 10,
			"star_rating":     4,
			"amenities":       []string{"pool", "wifi"},
			"unknown_field":   "dropped",
		},
	}
}

func TestBusinessService_CreateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("hotel", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5, "user_id": "user-1", "business_name": "Cliffside"}`)
		fb.on(http.MethodGet, businessTypesPath, http.StatusOK, `[{"id": 1, "name": "Hotel"}]`)
		fb.on(http.MethodPost, listingsPath, http.StatusCreated, `[{"id": 40, "business_id": 5, "business_type": 1, "title": "Cliffside Villas",
			"address": {"city": "Negril"}, "image_urls": ["https://cdn.example.com/v1.jpg"], "listing_data": {"hotel_type": "villa"}}]`)
		pub := new(mockPublisher)
		pub.On("PublishJSON", events.EventListingCreated, mock.MatchedBy(func(p events.ListingEventPayload) bool {
			return p.ListingID == "40" && p.BusinessID == "5" && p.City == "Negril"
		})).Return(nil).Once()
		svc := NewBusinessService(client, pub, nopLogger())

		listing, err := svc.CreateListing(ctx, userCreds, "user-1", "Hotel", hotelListingRequest())
		require.NoError(t, err)
		require.NotNil(t, listing)
		assert.Equal(t, models.ID("40"), listing.ID)
		assert.Equal(t, "Negril", listing.City())
		pub.AssertExpectations(t)

		inserts := fb.requestsTo(http.MethodPost, listingsPath)
		require.Len(t, inserts, 1)
		assert.Equal(t, "return=representation", inserts[0].Header.Get("Prefer"))

		var row map[string]any
		require.NoError(t, json.Unmarshal([]byte(inserts[0].Body), &row))
		assert.Equal(t, "5", row["business_id"])
		assert.Equal(t, "1", row["business_type"])
		assert.InDelta(t, 18.27, row["lattitude"], 0.0001)
		assert.NotContains(t, row, "latitude")
		assert.Equal(t, "Negril", row["address"].(map[string]any)["city"])

		data := row["listing_data"].(map[string]any)
		assert.Equal(t, "villa", data["hotel_type"])
		assert.EqualValues(t, 12, data["room_count"])
		assert.NotContains(t, data, "unknown_field")

		typeLookup := fb.requestsTo(http.MethodGet, businessTypesPath)[0]
		assert.Equal(t, "ilike.hotel", typeLookup.Query.Get("name"))
	})

	t.Run("unknown kind", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.CreateListing(ctx, userCreds, "user-1", "casino", hotelListingRequest())
		assert.ErrorIs(t, err, ErrUnknownBusinessType)
		assert.Zero(t, fb.count())
	})

	t.Run("details fail validation", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())
		req := hotelListingRequest()
		req.Details["available_rooms"] = 20

		_, err := svc.CreateListing(ctx, userCreds, "user-1", "hotel", req)
		assert.ErrorIs(t, err, ErrInvalidListing)
		assert.Zero(t, fb.count())
	})

	t.Run("missing title", func(t *testing.T) {
		_, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())
		req := hotelListingRequest()
		req.Title = ""

		_, err := svc.CreateListing(ctx, userCreds, "user-1", "hotel", req)
		assert.ErrorIs(t, err, ErrInvalidListing)
	})

	t.Run("user without business", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusNotAcceptable, noRows)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.CreateListing(ctx, userCreds, "user-1", "hotel", hotelListingRequest())
		assert.ErrorIs(t, err, ErrNoBusiness)
		assert.Empty(t, fb.requestsTo(http.MethodPost, listingsPath))
	})

	t.Run("type not configured remotely", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.CreateListing(ctx, userCreds, "user-1", "tour", models.NewListing{
			Title:   "Blue Mountain hike",
			Details: map[string]any{"highlights": "Sunrise at the peak", "schedule": []string{"04:00 start"}},
		})
		assert.ErrorIs(t, err, ErrUnknownBusinessType)
	})
}

func TestListingCreators(t *testing.T) {
	creators := map[string]ListingCreator{}
	for _, c := range DefaultCreators() {
		creators[c.BusinessType()] = c
	}
	require.Len(t, creators, 4)

	data, err := creators[models.BusinessTypeRestaurant].ListingData(map[string]any{
		"cuisine_type": "Jamaican", "opening_time": "08:00", "closing_time": "22:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jamaican", data["cuisine_type"])

	_, err = creators[models.BusinessTypeRestaurant].ListingData(map[string]any{"cuisine_type": "Jamaican", "opening_time": "8am"})
	assert.ErrorIs(t, err, ErrInvalidListing)

	data, err = creators[models.BusinessTypeActivity].ListingData(map[string]any{
		"safety_measures": "Life vests", "equipment_provided": []string{"snorkel"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"snorkel"}, data["equipment_provided"])

	_, err = creators[models.BusinessTypeTour].ListingData(nil)
	assert.ErrorIs(t, err, ErrInvalidListing)

	_, err = creators[models.BusinessTypeHotel].ListingData(map[string]any{"hotel_type": "resort", "room_count": "many"})
	assert.ErrorIs(t, err, ErrInvalidListing)
}

func TestBusinessService_UpdateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("scoped to own business", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodPatch, listingsPath, http.StatusOK, `[{"id": 40, "title": "Renamed"}]`)
		pub := new(mockPublisher)
		pub.On("PublishJSON", events.EventListingUpdated, mock.Anything).Return(nil).Once()
		svc := NewBusinessService(client, pub, nopLogger())

		listing, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{"title": "Renamed", "latitude": 18.1})
		require.NoError(t, err)
		require.NotNil(t, listing)
		assert.Equal(t, "Renamed", listing.Title)
		pub.AssertExpectations(t)

		req := fb.requestsTo(http.MethodPatch, listingsPath)[0]
		assert.Equal(t, "eq.40", req.Query.Get("id"))
		assert.Equal(t, "eq.5", req.Query.Get("business_id"))
		assert.JSONEq(t, `{"title": "Renamed", "lattitude": 18.1}`, req.Body)
	})

	t.Run("someone else's listing", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodPatch, listingsPath, http.StatusOK, `[]`)
		svc := NewBusinessService(client, nil, nopLogger())

		listing, err := svc.UpdateListing(ctx, userCreds, "user-1", "41", map[string]any{"status": "inactive"})
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{"business_id": 99})
		assert.ErrorIs(t, err, ErrInvalidListing)
		_, err = svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{})
		assert.ErrorIs(t, err, ErrInvalidListing)
		assert.Zero(t, fb.count())
	})
}

func TestBusinessService_UpdateListingValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid values", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())

		for _, fields := range []map[string]any{
			{"status": "archived"},
			{"status": nil},
			{"title": ""},
			{"title": nil},
			{"image_urls": []any{"not a url"}},
			{"latitude": 123.0},
			{"base_price": "free"},
			{"address": map[string]any{"city": "Negril", "planet": "Earth"}},
			{"listing_data": nil},
		} {
			_, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", fields)
			assert.ErrorIs(t, err, ErrInvalidListing, "%v", fields)
		}
		assert.Zero(t, fb.count())
	})

	t.Run("clears nullable fields", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodPatch, listingsPath, http.StatusOK, `[{"id": 40}]`)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{"base_price": nil, "status": "inactive"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"base_price": null, "status": "inactive"}`, fb.requestsTo(http.MethodPatch, listingsPath)[0].Body)
	})

	t.Run("listing data goes through the type's creator", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"id": 40, "business_types": {"name": "Hotel"}}`)
		fb.on(http.MethodPatch, listingsPath, http.StatusOK, `[{"id": 40}]`)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{
			"listing_data": map[string]any{"hotel_type": "resort", "room_count": 4, "available_rooms": 2, "spa": true},
		})
		require.NoError(t, err)

		lookup := fb.requestsTo(http.MethodGet, listingsPath)[0]
		assert.Equal(t, "eq.5", lookup.Query.Get("business_id"))
		assert.Equal(t, "application/vnd.pgrst.object+json", lookup.Header.Get("Accept"))

		var row map[string]any
		require.NoError(t, json.Unmarshal([]byte(fb.requestsTo(http.MethodPatch, listingsPath)[0].Body), &row))
		data := row["listing_data"].(map[string]any)
		assert.Equal(t, "resort", data["hotel_type"])
		assert.NotContains(t, data, "spa")

		_, err = svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{
			"listing_data": map[string]any{"room_count": 1, "available_rooms": 3},
		})
		assert.ErrorIs(t, err, ErrInvalidListing)
		assert.Len(t, fb.requestsTo(http.MethodPatch, listingsPath), 1)
	})

	t.Run("listing data for a type without creator", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"id": 40, "business_types": {"name": "Tour Operator"}}`)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.UpdateListing(ctx, userCreds, "user-1", "40", map[string]any{"listing_data": map[string]any{"license": "x"}})
		assert.ErrorIs(t, err, ErrUnknownBusinessType)
		assert.Empty(t, fb.requestsTo(http.MethodPatch, listingsPath))
	})

	t.Run("listing data for someone else's listing", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
		fb.on(http.MethodGet, listingsPath, http.StatusNotAcceptable, noRows)
		svc := NewBusinessService(client, nil, nopLogger())

		listing, err := svc.UpdateListing(ctx, userCreds, "user-1", "41", map[string]any{"listing_data": map[string]any{}})
		require.NoError(t, err)
		assert.Nil(t, listing)
		assert.Empty(t, fb.requestsTo(http.MethodPatch, listingsPath))
	})
}

func TestBusinessService_RegisterBusiness(t *testing.T) {
	ctx := context.Background()
	req := models.BusinessRegistration{
		BusinessName:   "Cliffside",
		BusinessEmail:  "desk@cliffside.example",
		Password:       "secret1",
		BusinessTypeID: "1",
	}

	t.Run("creates the business row", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessTypesPath, http.StatusOK, `{"id": 1}`)
		fb.on(http.MethodPost, businessesPath, http.StatusCreated, `{"id": 5, "user_id": "user-1", "business_name": "Cliffside", "business_type_id": 1}`)
		svc := NewBusinessService(client, nil, nopLogger())

		business, err := svc.RegisterBusiness(ctx, userCreds, "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, models.ID("5"), business.ID)
		assert.Equal(t, models.ID("1"), business.BusinessTypeID)

		insert := fb.requestsTo(http.MethodPost, businessesPath)[0]
		assert.Equal(t, "application/vnd.pgrst.object+json", insert.Header.Get("Accept"))
		assert.JSONEq(t, `{"user_id": "user-1", "business_name": "Cliffside", "business_email": "desk@cliffside.example", "business_type_id": "1"}`, insert.Body)
		assert.Equal(t, "eq.1", fb.requestsTo(http.MethodGet, businessTypesPath)[0].Query.Get("id"))
	})

	t.Run("unknown type", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, businessTypesPath, http.StatusNotAcceptable, noRows)
		svc := NewBusinessService(client, nil, nopLogger())

		_, err := svc.RegisterBusiness(ctx, userCreds, "user-1", req)
		assert.ErrorIs(t, err, ErrUnknownBusinessType)
		assert.Empty(t, fb.requestsTo(http.MethodPost, businessesPath))
	})

	t.Run("invalid request", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewBusinessService(client, nil, nopLogger())

		bad := req
		bad.BusinessEmail = "nope"
		_, err := svc.RegisterBusiness(ctx, userCreds, "user-1", bad)
		assert.ErrorIs(t, err, ErrInvalidRegistration)
		assert.Zero(t, fb.count())
	})
}

func TestBusinessService_DeleteListing(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodGet, businessesPath, http.StatusOK, `{"id": 5}`)
	fb.on(http.MethodDelete, listingsPath, http.StatusOK, `[{"id": 40}]`)
	pub := new(mockPublisher)
	pub.On("PublishJSON", events.EventListingDeleted, mock.Anything).Return(nil).Once()
	svc := NewBusinessService(client, pub, nopLogger())

	listing, err := svc.DeleteListing(context.Background(), userCreds, "user-1", "40")
	require.NoError(t, err)
	require.NotNil(t, listing)
	pub.AssertExpectations(t)

	req := fb.requestsTo(http.MethodDelete, listingsPath)[0]
	assert.Equal(t, "eq.5", req.Query.Get("business_id"))
}

func TestBusinessService_BusinessListings(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodGet, listingsPath, http.StatusOK, `[{"id": 1, "image_urls": "[\"a.jpg\", \"b.jpg\"]"}]`)
	svc := NewBusinessService(client, nil, nopLogger())

	listings, err := svc.BusinessListings(context.Background(), userCreds, "5")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, listings[0].ImageURLs)
	assert.Equal(t, "eq.5", fb.requestsTo(http.MethodGet, listingsPath)[0].Query.Get("business_id"))
}
