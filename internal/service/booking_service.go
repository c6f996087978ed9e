package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"islandstay/internal/domain"
	"islandstay/internal/events"
	"islandstay/internal/models"
	"islandstay/internal/remote"

	"github.com/rs/zerolog"
)

// BookingService drives the create -> confirm | cancel flow. Every state
// change happens inside a remote procedure; this tier only issues the call
// and reads back what came out.
type BookingService struct {
	store    domain.RemoteStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(store domain.RemoteStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *BookingService) ValidateBookingRequest(req models.BookingRequest) error {
	if err := validateStruct(ErrInvalidBooking, req); err != nil {
		return err
	}

	// Даты уже прошли проверку формата
	checkIn, _ := time.Parse(time.DateOnly, req.CheckIn)
	checkOut, _ := time.Parse(time.DateOnly, req.CheckOut)
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check_out must be after check_in", ErrInvalidBooking)
	}

	return nil
}

// CreateBooking returns the id the remote procedure assigned. An empty id
// with a nil error means the procedure ran but produced no booking.
func (s *BookingService) CreateBooking(ctx context.Context, creds models.Credentials, req models.BookingRequest) (models.ID, error) {
	if err := s.ValidateBookingRequest(req); err != nil {
		return "", err
	}

	resp, err := s.store.RPC(ctx, creds, models.ProcCreateHotelBooking, req.RPCParams())
	if err != nil {
		s.failureEvent(err).Str("listing_id", req.ListingID).Str("user_id", req.UserID).Msg("create booking failed")
		return "", err
	}

	first, ok := resp.First()
	if !ok {
		s.logger.Warn().Str("listing_id", req.ListingID).Msg("create booking returned no rows")
		return "", nil
	}

	id := bookingIDFromRow(first)
	if id == "" {
		s.logger.Warn().RawJSON("row", first).Msg("create booking returned a row without id")
		return "", nil
	}

	s.publishEvent(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: id.String(),
		ListingID: req.ListingID,
		UserID:    req.UserID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Status:    models.StatusPending,
	})

	return id, nil
}

// ConfirmBooking reports whether the remote procedure accepted the transition.
// Whether the booking exists and is still pending is for the procedure to decide.
func (s *BookingService) ConfirmBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (bool, error) {
	return s.transition(ctx, creds, bookingID, models.ProcConfirmHotelBooking, events.EventBookingConfirmed, models.StatusConfirmed)
}

func (s *BookingService) CancelBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (bool, error) {
	return s.transition(ctx, creds, bookingID, models.ProcCancelHotelBooking, events.EventBookingCancelled, models.StatusCancelled)
}

func (s *BookingService) transition(ctx context.Context, creds models.Credentials, bookingID models.ID, proc, eventType, status string) (bool, error) {
	if bookingID == "" {
		return false, fmt.Errorf("%w: booking id is required", ErrInvalidBooking)
	}

	resp, err := s.store.RPC(ctx, creds, proc, map[string]any{"p_booking_id": bookingID})
	if err != nil {
		s.failureEvent(err).Str("booking_id", bookingID.String()).Str("procedure", proc).Msg("booking transition failed")
		return false, err
	}

	if !resp.Truthy() {
		s.logger.Info().Str("booking_id", bookingID.String()).Str("procedure", proc).Msg("booking transition not applied")
		return false, nil
	}

	s.publishEvent(eventType, events.BookingEventPayload{BookingID: bookingID.String(), Status: status})
	return true, nil
}

// GetBooking reads a booking with its nightly items. A missing booking is
// (nil, nil).
func (s *BookingService) GetBooking(ctx context.Context, creds models.Credentials, bookingID models.ID) (*models.Booking, error) {
	resp, err := s.store.From(models.TableHotelBookings).
		Select("*, hotel_booking_items(*)").
		Eq("id", bookingID).
		MaybeSingle().
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID.String()).Msg("get booking failed")
		return nil, err
	}
	if resp.IsEmpty() {
		return nil, nil
	}

	var booking models.Booking
	if err := resp.Decode(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) UserBookings(ctx context.Context, creds models.Credentials, userID string) ([]models.Booking, error) {
	resp, err := s.store.From(models.TableHotelBookings).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx, creds)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("list user bookings failed")
		return []models.Booking{}, err
	}

	bookings := []models.Booking{}
	if err := resp.DecodeRows(&bookings); err != nil {
		return []models.Booking{}, err
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}

	payload.ChangedAt = time.Now()
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", payload.BookingID).Msg("publish event error")
	}
}

// bookingIDFromRow accepts the shapes create_hotel_booking is known to
// return: a bare id, or an object carrying it.
func bookingIDFromRow(row json.RawMessage) models.ID {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(row, &fields); err != nil {
		var id models.ID
		if err := json.Unmarshal(row, &id); err != nil {
			return ""
		}
		return id
	}

	for _, key := range []string{"id", "booking_id", models.ProcCreateHotelBooking} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var id models.ID
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			return id
		}
	}
	return ""
}

// failureEvent logs a refusal by the booking procedures (no rooms, wrong
// status) as a warning and anything else as an error.
func (s *BookingService) failureEvent(err error) *zerolog.Event {
	if remote.IsRejected(err) {
		return s.logger.Warn().Err(err)
	}
	return s.logger.Error().Err(err)
}
