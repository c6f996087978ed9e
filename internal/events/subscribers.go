package events

import (
	"encoding/json"

	"islandstay/internal/metrics"

	"github.com/rs/zerolog"
)

// RegisterDefaultSubscribers wires the audit log and transition counters.
func RegisterDefaultSubscribers(bus *EventBus, logger *zerolog.Logger) {
	bus.Subscribe(bookingAudit(logger), BookingEventTypes...)
	bus.Subscribe(listingAudit(logger), ListingEventTypes...)
}

func bookingAudit(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var payload BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		metrics.IncBookingTransition(event.Type)
		if logger != nil {
			logger.Info().
				Str("event_type", event.Type).
				Str("booking_id", payload.BookingID).
				Str("listing_id", payload.ListingID).
				Str("status", payload.Status).
				Msg("booking event")
		}
		return nil
	}
}

func listingAudit(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var payload ListingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		if logger != nil {
			logger.Info().
				Str("event_type", event.Type).
				Str("listing_id", payload.ListingID).
				Str("business_id", payload.BusinessID).
				Str("city", payload.City).
				Msg("listing event")
		}
		return nil
	}
}
