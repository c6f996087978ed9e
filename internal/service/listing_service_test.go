package service

import (
	"context"
	"net/http"
	"testing"

	"islandstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingsPath = "/rest/v1/listings"

func price(v float64) *float64 { return &v }

func prices(listings []models.Listing) []*float64 {
	out := make([]*float64, len(listings))
	for i, l := range listings {
		out[i] = l.BasePrice
	}
	return out
}

func ids(listings []models.Listing) []models.ID {
	out := make([]models.ID, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestListingService_FilterQuery(t *testing.T) {
	_, client := newFakeBackend(t)
	svc := NewListingService(client, nopLogger())

	t.Run("all criteria", func(t *testing.T) {
		q, err := svc.FilterQuery(models.FilterCriteria{
			models.FilterQuery:    "beach",
			models.FilterCategory: "3",
			models.FilterMinPrice: "50",
			models.FilterMaxPrice: " 199.5 ",
			models.FilterLocation: "Negril",
			"colour":              "blue",
		})
		require.NoError(t, err)

		p := q.Params()
		assert.Equal(t, "*,business_types(name)", p.Get("select"))
		assert.Equal(t, "eq.active", p.Get("status"))
		assert.Equal(t, "ilike.%beach%", p.Get("title"))
		assert.Equal(t, "eq.3", p.Get("business_type"))
		assert.Equal(t, []string{"lte.199.5", "gte.50"}, p["base_price"])
		assert.Equal(t, "ilike.%Negril%", p.Get("address->>city"))
		assert.NotContains(t, p, "colour")
	})

	t.Run("empty values add nothing", func(t *testing.T) {
		withEmpty, err := svc.FilterQuery(models.FilterCriteria{models.FilterCategory: "", models.FilterMinPrice: ""})
		require.NoError(t, err)
		none, err := svc.FilterQuery(models.FilterCriteria{})
		require.NoError(t, err)
		assert.Equal(t, none.Params().Encode(), withEmpty.Params().Encode())

		nilCriteria, err := svc.FilterQuery(nil)
		require.NoError(t, err)
		assert.Equal(t, none.Params().Encode(), nilCriteria.Params().Encode())
	})

	t.Run("bad price rejects filter", func(t *testing.T) {
		for _, v := range []string{"cheap", "NaN", "1e400", "12,5"} {
			_, err := svc.FilterQuery(models.FilterCriteria{models.FilterMaxPrice: v})
			assert.ErrorIs(t, err, ErrInvalidFilter, v)
		}
	})
}

func TestListingService_Filter(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodGet, listingsPath, http.StatusOK, `[
		{"id": 1, "title": "Sea View", "status": "active", "base_price": 120,
		 "address": "{\"city\": \"Negril\"}", "image_url": "https://img/1.jpg", "business_types": {"name": "Hotel"}},
		{"id": 2, "title": "Reef Dive", "status": "active", "base_price": null, "image_urls": null}
	]`)
	svc := NewListingService(client, nopLogger())

	listings, err := svc.Filter(context.Background(), models.Credentials{}, models.FilterCriteria{models.FilterLocation: "negril"})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Negril", listings[0].City())
	assert.Equal(t, "Hotel", listings[0].BusinessTypeName)
	assert.Equal(t, []string{"https://img/1.jpg"}, listings[0].ImageURLs)
	assert.Equal(t, []string{}, listings[1].ImageURLs)

	req := fb.requestsTo(http.MethodGet, listingsPath)[0]
	assert.Equal(t, "Bearer anon", req.Header.Get("Authorization"))

	t.Run("bad price never reaches remote", func(t *testing.T) {
		before := fb.count()
		out, err := svc.Filter(context.Background(), models.Credentials{}, models.FilterCriteria{models.FilterMinPrice: "x"})
		assert.ErrorIs(t, err, ErrInvalidFilter)
		assert.Empty(t, out)
		assert.Equal(t, before, fb.count())
	})

	t.Run("remote failure", func(t *testing.T) {
		fb.on(http.MethodGet, listingsPath, http.StatusInternalServerError, `{"message":"boom"}`)
		out, err := svc.Filter(context.Background(), models.Credentials{}, nil)
		assert.Error(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestListingService_Sort(t *testing.T) {
	svc := NewListingService(nil, nopLogger())
	input := []models.Listing{
		{ID: "a", BasePrice: price(50)},
		{ID: "b"},
		{ID: "c", BasePrice: price(10)},
	}

	t.Run("price low", func(t *testing.T) {
		got := svc.Sort(input, models.SortPriceLow)
		assert.Equal(t, []*float64{price(10), price(50), nil}, prices(got))
	})

	t.Run("price high", func(t *testing.T) {
		got := svc.Sort(input, models.SortPriceHigh)
		assert.Equal(t, []*float64{price(50), price(10), nil}, prices(got))
	})

	t.Run("input untouched", func(t *testing.T) {
		_ = svc.Sort(input, models.SortPriceLow)
		assert.Equal(t, []models.ID{"a", "b", "c"}, ids(input))
	})

	t.Run("null prices keep their order", func(t *testing.T) {
		in := []models.Listing{{ID: "n1"}, {ID: "p", BasePrice: price(5)}, {ID: "n2"}}
		assert.Equal(t, []models.ID{"p", "n1", "n2"}, ids(svc.Sort(in, models.SortPriceHigh)))
		assert.Equal(t, []models.ID{"p", "n1", "n2"}, ids(svc.Sort(in, models.SortPriceLow)))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, key := range []string{models.SortPriceLow, models.SortPriceHigh, models.SortRating, models.SortNewest} {
			once := svc.Sort(input, key)
			assert.Equal(t, ids(once), ids(svc.Sort(once, key)), key)
		}
	})

	t.Run("rating treats missing as zero", func(t *testing.T) {
		in := []models.Listing{{ID: "none"}, {ID: "four", Rating: price(4)}, {ID: "neg", Rating: price(-1)}, {ID: "zero", Rating: price(0)}}
		assert.Equal(t, []models.ID{"four", "none", "zero", "neg"}, ids(svc.Sort(in, models.SortRating)))
	})

	t.Run("newest", func(t *testing.T) {
		in := []models.Listing{
			{ID: "old", CreatedAt: "2024-01-01T00:00:00Z"},
			{ID: "missing"},
			{ID: "new", CreatedAt: "2026-05-01T10:00:00Z"},
		}
		assert.Equal(t, []models.ID{"new", "old", "missing"}, ids(svc.Sort(in, models.SortNewest)))
	})

	t.Run("unknown key is identity", func(t *testing.T) {
		got := svc.Sort(input, "unknown-key")
		assert.Equal(t, ids(input), ids(got))
		assert.Equal(t, prices(input), prices(got))
		assert.Equal(t, ids(input), ids(svc.Sort(input, "")))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, svc.Sort(nil, models.SortRating))
	})
}

func TestDetailsTable(t *testing.T) {
	tests := map[string]string{
		"hotel":            "hotel_details",
		"Hotel":            "hotel_details",
		"RESTAURANT":       "restaurant_details",
		" Activity ":       "activity_details",
		"tour":             "tour_details",
		"Tour Operator":    "tour_operator_details",
		"  tour operator ": "tour_operator_details",
		"Spa":              "listing_details",
		"":                 "listing_details",
	}
	for in, want := range tests {
		assert.Equal(t, want, DetailsTable(in), in)
	}
}

func TestListingService_GetDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("tour operator", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"business_types": {"name": "Tour Operator"}}`)
		fb.on(http.MethodGet, "/rest/v1/tour_operator_details", http.StatusOK, `{"listing_id": 4, "license_number": "TO-1"}`)
		svc := NewListingService(client, nopLogger())

		details, err := svc.GetDetails(ctx, models.Credentials{}, "4")
		require.NoError(t, err)
		assert.Equal(t, "TO-1", details["license_number"])

		reqs := fb.requestsTo(http.MethodGet, "/rest/v1/tour_operator_details")
		require.Len(t, reqs, 1)
		assert.Equal(t, "eq.4", reqs[0].Query.Get("listing_id"))
		assert.Equal(t, "application/vnd.pgrst.object+json", reqs[0].Header.Get("Accept"))
	})

	t.Run("unknown listing", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusNotAcceptable, noRows)
		svc := NewListingService(client, nopLogger())

		details, err := svc.GetDetails(ctx, models.Credentials{}, "4")
		require.NoError(t, err)
		assert.Nil(t, details)
		assert.Equal(t, 1, fb.count())
	})

	t.Run("listing without type", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"business_types": null}`)
		svc := NewListingService(client, nopLogger())

		details, err := svc.GetDetails(ctx, models.Credentials{}, "4")
		require.NoError(t, err)
		assert.Nil(t, details)
	})

	t.Run("missing detail row", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"business_types": {"name": "Spa"}}`)
		fb.on(http.MethodGet, "/rest/v1/listing_details", http.StatusNotAcceptable, noRows)
		svc := NewListingService(client, nopLogger())

		details, err := svc.GetDetails(ctx, models.Credentials{}, "4")
		require.NoError(t, err)
		assert.Nil(t, details)
		assert.Len(t, fb.requestsTo(http.MethodGet, "/rest/v1/listing_details"), 1)
	})

	t.Run("detail fetch fails", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"business_types": {"name": "hotel"}}`)
		fb.on(http.MethodGet, "/rest/v1/hotel_details", http.StatusInternalServerError, `{"message":"down"}`)
		svc := NewListingService(client, nopLogger())

		details, err := svc.GetDetails(ctx, models.Credentials{}, "4")
		assert.Error(t, err)
		assert.Nil(t, details)
	})
}

func TestListingService_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("active by id", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `{"id": 3, "title": "Hut", "listing_data": "{\"hotel_type\": \"villa\"}"}`)
		svc := NewListingService(client, nopLogger())

		l, err := svc.GetActiveByID(ctx, models.Credentials{}, "3")
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.Equal(t, "villa", l.ListingData["hotel_type"])

		req := fb.requestsTo(http.MethodGet, listingsPath)[0]
		assert.Equal(t, "eq.active", req.Query.Get("status"))
		assert.Equal(t, "eq.3", req.Query.Get("id"))
	})

	t.Run("by id missing", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusNotAcceptable, noRows)
		svc := NewListingService(client, nopLogger())

		l, err := svc.GetByID(ctx, models.Credentials{}, "3")
		require.NoError(t, err)
		assert.Nil(t, l)
	})

	t.Run("get all has no status filter", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		svc := NewListingService(client, nopLogger())

		all, err := svc.GetAll(ctx, models.Credentials{})
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, fb.requestsTo(http.MethodGet, listingsPath)[0].Query.Get("status"))
	})

	t.Run("search merges title and description", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, listingsPath, http.StatusOK, `[{"id": 1}, {"id": 2}]`)
		svc := NewListingService(client, nopLogger())

		found, err := svc.Search(ctx, models.Credentials{}, "reef")
		require.NoError(t, err)
		assert.Equal(t, []models.ID{"1", "2"}, ids(found))

		reqs := fb.requestsTo(http.MethodGet, listingsPath)
		require.Len(t, reqs, 2)
		assert.Equal(t, "ilike.%reef%", reqs[0].Query.Get("title"))
		assert.Equal(t, "ilike.%reef%", reqs[1].Query.Get("description"))
	})

	t.Run("business types", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, "/rest/v1/business_types", http.StatusOK, `[{"id": 1, "name": "Hotel"}, {"id": "2", "name": "Tour"}]`)
		svc := NewListingService(client, nopLogger())

		types, err := svc.BusinessTypes(ctx, models.Credentials{})
		require.NoError(t, err)
		assert.Equal(t, []models.BusinessType{{ID: "1", Name: "Hotel"}, {ID: "2", Name: "Tour"}}, types)
	})

	t.Run("listing services", func(t *testing.T) {
		fb, client := newFakeBackend(t)
		fb.on(http.MethodGet, "/rest/v1/services", http.StatusOK, `[{"id": 9, "listing_id": 3, "name": "Airport transfer", "price": 25}]`)
		svc := NewListingService(client, nopLogger())

		services, err := svc.ListingServices(ctx, models.Credentials{}, "3")
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "Airport transfer", services[0].Name)
		assert.Equal(t, "eq.3", fb.requestsTo(http.MethodGet, "/rest/v1/services")[0].Query.Get("listing_id"))
	})
}
