package models

import "time"

type Booking struct {
	ID         ID            `json:"id"`
	ListingID  ID            `json:"listing_id"`
	UserID     ID            `json:"user_id"`
	RoomTypeID ID            `json:"room_type_id,omitempty"`
	CheckIn    string        `json:"check_in"`
	CheckOut   string        `json:"check_out"`
	Adults     int           `json:"adults"`
	Children   int           `json:"children"`
	Quantity   int           `json:"quantity"`
	Currency   string        `json:"currency"`
	TotalPrice *float64      `json:"total_price,omitempty"`
	Status     string        `json:"status"` // pending, confirmed, cancelled
	Items      []BookingItem `json:"hotel_booking_items,omitempty"`
	CreatedAt  *time.Time    `json:"created_at,omitempty"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
}

// BookingItem is one nightly line of a hotel booking.
type BookingItem struct {
	ID         ID       `json:"id"`
	BookingID  ID       `json:"booking_id"`
	RoomTypeID ID       `json:"room_type_id,omitempty"`
	StayDate   string   `json:"stay_date,omitempty"`
	Quantity   int      `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
}

// BookingRequest carries everything create_hotel_booking needs.
type BookingRequest struct {
	ListingID  string `json:"listing_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults     int    `json:"adults" validate:"min=1"`
	Children   int    `json:"children" validate:"min=0"`
	RoomTypeID string `json:"room_type_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"min=1"`
	Currency   string `json:"currency" validate:"required,len=3,alpha"`
}

// RPCParams returns the parameter mapping of the remote create procedure.
func (r BookingRequest) RPCParams() map[string]any {
	return map[string]any{
		"p_listing_id":   r.ListingID,
		"p_user_id":      r.UserID,
		"p_check_in":     r.CheckIn,
		"p_check_out":    r.CheckOut,
		"p_adults":       r.Adults,
		"p_children":     r.Children,
		"p_room_type_id": r.RoomTypeID,
		"p_quantity":     r.Quantity,
		"p_currency":     r.Currency,
	}
}
