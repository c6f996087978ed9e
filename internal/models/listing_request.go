package models

// NewListing is the common part of a business listing creation request.
// Details holds the type specific payload and is decoded by the creator
// registered for the listing's business type.
type NewListing struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Address     Address        `json:"address"`
	Latitude    *float64       `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64       `json:"longitude" validate:"omitempty,longitude"`
	ImageURLs   []string       `json:"image_urls" validate:"dive,url"`
	BasePrice   *float64       `json:"base_price" validate:"omitempty,gte=0"`
	Details     map[string]any `json:"details"`
}

type HotelDetails struct {
	HotelType          string   `json:"hotel_type" validate:"required"`
	RoomCount          int      `json:"room_count" validate:"gte=0"`
	AvailableRooms     int      `json:"available_rooms" validate:"gte=0,ltefield=RoomCount"`
	StarRating         int      `json:"star_rating" validate:"gte=0,lte=5"`
	Facilities         []string `json:"facilities"`
	Amenities          []string `json:"amenities"`
	NearbyAttractions  string   `json:"nearby_attractions"`
	CancellationPolicy string   `json:"cancellation_policy"`
	DepositRequired    bool     `json:"deposit_required"`
	AgeRequirement     int      `json:"age_requirement" validate:"gte=0"`
	LastRenovationDate string   `json:"last_renovation_date" validate:"omitempty,datetime=2006-01-02"`
	Status             string   `json:"status"`
}

type RestaurantDetails struct {
	CuisineType         string   `json:"cuisine_type" validate:"required"`
	SeatingCapacity     int      `json:"seating_capacity" validate:"gte=0"`
	OpeningTime         string   `json:"opening_time" validate:"omitempty,datetime=15:04"`
	ClosingTime         string   `json:"closing_time" validate:"omitempty,datetime=15:04"`
	Facilities          []string `json:"facilities"`
	ReservationRequired bool     `json:"reservation_required"`
	TakeoutAvailable    bool     `json:"takeout_available"`
	CancellationPolicy  string   `json:"cancellation_policy"`
	AgeRequirement      int      `json:"age_requirement" validate:"gte=0"`
	Status              string   `json:"status"`
}

type TourDetails struct {
	Highlights         string   `json:"highlights" validate:"required"`
	Schedule           []string `json:"schedule"`
	CancellationPolicy string   `json:"cancellation_policy"`
	DepositRequired    bool     `json:"deposit_required"`
	AgeRequirement     int      `json:"age_requirement" validate:"gte=0"`
	Status             string   `json:"status"`
}

type ActivityDetails struct {
	SafetyMeasures     string   `json:"safety_measures" validate:"required"`
	WaiverRequired     bool     `json:"waiver_required"`
	EquipmentProvided  []string `json:"equipment_provided"`
	CancellationPolicy string   `json:"cancellation_policy"`
	AgeRequirement     int      `json:"age_requirement" validate:"gte=0"`
	Status             string   `json:"status"`
}

// ListingUpdate holds the fields a business may change on its listing. A nil
// field was not sent.
type ListingUpdate struct {
	Title       *string        `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string        `json:"description" validate:"omitnil,max=5000"`
	Address     *Address       `json:"address"`
	Latitude    *float64       `json:"latitude" validate:"omitnil,latitude"`
	Lattitude   *float64       `json:"lattitude" validate:"omitnil,latitude"`
	Longitude   *float64       `json:"longitude" validate:"omitnil,longitude"`
	ImageURLs   *[]string      `json:"image_urls" validate:"omitnil,dive,url"`
	BasePrice   *float64       `json:"base_price" validate:"omitnil,gte=0"`
	Status      *string        `json:"status" validate:"omitnil,oneof=active inactive"`
	ListingData map[string]any `json:"listing_data"`
}
