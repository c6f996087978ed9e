package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Listing struct {
	ID               ID             `json:"id"`
	BusinessID       ID             `json:"business_id,omitempty"`
	BusinessType     string         `json:"business_type"`
	BusinessTypeName string         `json:"business_type_name,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Address          *Address       `json:"address,omitempty"`
	AddressText      string         `json:"address_text,omitempty"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	ImageURLs        []string       `json:"image_urls"`
	Status           string         `json:"status"`
	BasePrice        *float64       `json:"base_price"`
	Rating           *float64       `json:"rating"`
	CreatedAt        string         `json:"created_at,omitempty"`
	ListingData      map[string]any `json:"listing_data,omitempty"`
	ListingDataText  string         `json:"listing_data_text,omitempty"`
}

// listingRow is the shape rows come back in from the remote store.
type listingRow struct {
	ID            ID              `json:"id"`
	BusinessID    ID              `json:"business_id"`
	BusinessType  json.RawMessage `json:"business_type"`
	BusinessTypes *struct {
		Name string `json:"name"`
	} `json:"business_types"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Address     json.RawMessage `json:"address"`
	Lattitude   *float64        `json:"lattitude"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	ImageURLs   json.RawMessage `json:"image_urls"`
	ImageURL    *string         `json:"image_url"`
	Status      string          `json:"status"`
	BasePrice   *float64        `json:"base_price"`
	Rating      *float64        `json:"rating"`
	CreatedAt   *string         `json:"created_at"`
	ListingData json.RawMessage `json:"listing_data"`
}

// UnmarshalJSON accepts both remote rows (nested fields possibly serialized as
// text, legacy image_url) and the listing's own encoding.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var row listingRow
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}

	*l = Listing{
		ID:           row.ID,
		BusinessID:   row.BusinessID,
		BusinessType: scalarString(row.BusinessType),
		Title:        row.Title,
		Description:  row.Description,
		Longitude:    row.Longitude,
		Status:       row.Status,
		BasePrice:    row.BasePrice,
		Rating:       row.Rating,
	}
	if row.BusinessTypes != nil {
		l.BusinessTypeName = row.BusinessTypes.Name
	} else {
		var own struct {
			Name string `json:"business_type_name"`
		}
		_ = json.Unmarshal(data, &own)
		l.BusinessTypeName = own.Name
	}
	if row.CreatedAt != nil {
		l.CreatedAt = *row.CreatedAt
	}
	l.Latitude = row.Latitude
	if l.Latitude == nil {
		l.Latitude = row.Lattitude
	}

	var addr Address
	if text, ok := DecodeNested(row.Address, &addr); ok {
		l.Address = &addr
	} else {
		l.AddressText = text
	}
	if l.AddressText == "" {
		var own struct {
			Text string `json:"address_text"`
		}
		_ = json.Unmarshal(data, &own)
		l.AddressText = own.Text
	}

	var details map[string]any
	if text, ok := DecodeNested(row.ListingData, &details); ok {
		l.ListingData = details
	} else {
		l.ListingDataText = text
	}
	if l.ListingDataText == "" {
		var own struct {
			Text string `json:"listing_data_text"`
		}
		_ = json.Unmarshal(data, &own)
		l.ListingDataText = own.Text
	}

	l.ImageURLs = normalizeImageURLs(row.ImageURLs, row.ImageURL)
	return nil
}

// City returns the address city or "" when the address is unknown.
func (l *Listing) City() string {
	if l.Address == nil {
		return ""
	}
	return l.Address.City
}

// DecodeNested decodes a nested column into dst. The column may hold the
// structure itself or the structure serialized as a JSON string. When the
// value cannot be decoded the raw text is returned with ok=false.
func DecodeNested(raw json.RawMessage, dst any) (text string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return string(raw), false
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return "", false
		}
		if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
			return text, false
		}
		return "", true
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return string(raw), false
	}
	return "", true
}

func normalizeImageURLs(raw json.RawMessage, legacy *string) []string {
	urls := []string{}

	var decoded []string
	if text, ok := DecodeNested(raw, &decoded); ok {
		urls = append(urls, decoded...)
	} else if text != "" {
		urls = append(urls, text)
	}

	if legacy != nil && strings.TrimSpace(*legacy) != "" {
		for _, u := range urls {
			if u == *legacy {
				return urls
			}
		}
		urls = append(urls, *legacy)
	}
	return urls
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// FilterCriteria maps recognized filter keys to raw request values.
type FilterCriteria map[string]string

type BusinessType struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Business struct {
	ID             ID     `json:"id"`
	UserID         ID     `json:"user_id"`
	BusinessName   string `json:"business_name"`
	BusinessEmail  string `json:"business_email,omitempty"`
	BusinessTypeID ID     `json:"business_type_id,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// ListingService is an extra offered alongside a listing (spa, transfer, ...).
type ListingService struct {
	ID          ID       `json:"id"`
	ListingID   ID       `json:"listing_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}
