package api

import (
	"net/http"

	"islandstay/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) handleBusinessListings(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	business, err := s.business.CurrentBusiness(r.Context(), session.Credentials, session.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if business == nil {
		writeError(w, http.StatusForbidden, "no business profile for user")
		return
	}

	listings, err := s.business.BusinessListings(r.Context(), session.Credentials, business.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"business": business, "listings": listings})
}

// handleBusinessListing shows one listing of the caller's business whatever
// its status.
func (s *HTTPServer) handleBusinessListing(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	business, err := s.business.CurrentBusiness(r.Context(), session.Credentials, session.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if business == nil {
		writeError(w, http.StatusForbidden, "no business profile for user")
		return
	}

	listing, err := s.listings.GetByID(r.Context(), session.Credentials, idParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if listing == nil || listing.BusinessID != business.ID {
		writeError(w, http.StatusNotFound, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *HTTPServer) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var req models.NewListing
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.business.CreateListing(r.Context(), session.Credentials, session.UserID, chi.URLParam(r, "kind"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if listing == nil {
		writeError(w, http.StatusBadGateway, "listing was not created")
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (s *HTTPServer) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.business.UpdateListing(r.Context(), session.Credentials, session.UserID, idParam(r), fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if listing == nil {
		writeError(w, http.StatusNotFound, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *HTTPServer) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	listing, err := s.business.DeleteListing(r.Context(), session.Credentials, session.UserID, idParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if listing == nil {
		writeError(w, http.StatusNotFound, "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": listing.ID})
}
