package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int

	bus.Subscribe(func(event *Event) error {
		received = event
		callCount++
		return nil
	}, EventBookingCreated)

	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: "b-1", Status: "pending"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "b-1", decoded.BookingID)
	assert.Equal(t, "pending", decoded.Status)
}

func TestEventBusMultipleTypes(t *testing.T) {
	bus := NewEventBus(nil)
	var seen []string

	bus.Subscribe(func(e *Event) error { seen = append(seen, e.Type); return nil }, BookingEventTypes...)

	bus.Publish(&Event{Type: EventBookingConfirmed})
	bus.Publish(&Event{Type: EventBookingCancelled})
	bus.Publish(&Event{Type: EventListingCreated})

	assert.Equal(t, []string{EventBookingConfirmed, EventBookingCancelled}, seen)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	bus.Publish(&Event{Type: "unknown"})
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestEventBusLogsHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	called := false
	bus.Subscribe(func(_ *Event) error { return errors.New("boom") }, EventListingDeleted)
	bus.Subscribe(func(_ *Event) error { called = true; return nil }, EventListingDeleted)

	bus.Publish(&Event{Type: EventListingDeleted})

	assert.True(t, called)
	assert.Contains(t, buf.String(), "event handler failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestDefaultSubscribers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)
	RegisterDefaultSubscribers(bus, &logger)

	require.NoError(t, bus.PublishJSON(EventBookingConfirmed, BookingEventPayload{BookingID: "b-7", Status: "confirmed"}))
	require.NoError(t, bus.PublishJSON(EventListingCreated, ListingEventPayload{ListingID: "l-3", BusinessID: "biz-1"}))

	out := buf.String()
	assert.Contains(t, out, `"booking_id":"b-7"`)
	assert.Contains(t, out, `"listing_id":"l-3"`)
	assert.NotContains(t, out, "event handler failed")
}

func TestDefaultSubscribersRejectBadPayload(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)
	RegisterDefaultSubscribers(bus, &logger)

	bus.Publish(&Event{Type: EventBookingCreated, Payload: []byte("not json")})

	assert.Contains(t, buf.String(), "event handler failed")
}
