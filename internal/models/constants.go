package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	ListingStatusActive   = "active"
	ListingStatusInactive = "inactive"
)

const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// Filter criteria keys understood by the listing pipeline.
const (
	FilterQuery    = "query"
	FilterCategory = "category"
	FilterMinPrice = "min_price"
	FilterMaxPrice = "max_price"
	FilterLocation = "location"
)

const (
	BusinessTypeHotel        = "hotel"
	BusinessTypeRestaurant   = "restaurant"
	BusinessTypeTour         = "tour"
	BusinessTypeActivity     = "activity"
	BusinessTypeTourOperator = "tour operator"
)

const (
	RoleBusiness = "business"
	RoleUser     = "user"

	// UserTypeRegular is the user_type stored for non-business sign-ups.
	UserTypeRegular = "regular"
)

// Remote procedures and tables.
const (
	ProcCreateHotelBooking  = "create_hotel_booking"
	ProcConfirmHotelBooking = "confirm_hotel_booking"
	ProcCancelHotelBooking  = "cancel_hotel_booking"

	TableListings      = "listings"
	TableBusinessTypes = "business_types"
	TableBusinesses    = "businesses"
	TableServices      = "services"
	TableHotelBookings = "hotel_bookings"
	TableProfiles      = "profiles"
	TableListingDetail = "listing_details"
)

const (
	// DefaultSessionTTL время жизни серверной сессии в секундах
	DefaultSessionTTL = 7 * 24 * 60 * 60

	// DefaultRefreshLeeway за сколько секунд до истечения обновлять access token
	DefaultRefreshLeeway = 60

	// LoginRateLimitAttempts количество попыток входа в окне
	LoginRateLimitAttempts = 5

	// LoginRateLimitWindow окно ограничения попыток входа в секундах
	LoginRateLimitWindow = 5 * 60
)
