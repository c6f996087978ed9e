package api

import (
	"net/http"

	"islandstay/internal/models"
)

type bookingStatusResponse struct {
	BookingID models.ID `json:"booking_id"`
	Status    string    `json:"status"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Бронь всегда создается от имени текущего пользователя
	req.UserID = session.UserID

	id, err := s.bookings.CreateBooking(r.Context(), session.Credentials, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if id == "" {
		writeError(w, http.StatusConflict, "booking was not created")
		return
	}
	writeJSON(w, http.StatusCreated, bookingStatusResponse{BookingID: id, Status: models.StatusPending})
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	bookings, err := s.bookings.UserBookings(r.Context(), session.Credentials, session.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	booking, err := s.bookings.GetBooking(r.Context(), session.Credentials, idParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if booking == nil || booking.UserID.String() != session.UserID {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	id := idParam(r)

	ok, err := s.bookings.ConfirmBooking(r.Context(), session.Credentials, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "booking could not be confirmed")
		return
	}
	writeJSON(w, http.StatusOK, bookingStatusResponse{BookingID: id, Status: models.StatusConfirmed})
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	id := idParam(r)

	ok, err := s.bookings.CancelBooking(r.Context(), session.Credentials, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "booking could not be cancelled")
		return
	}
	writeJSON(w, http.StatusOK, bookingStatusResponse{BookingID: id, Status: models.StatusCancelled})
}
