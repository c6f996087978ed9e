package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"islandstay/internal/logging"
	"islandstay/internal/models"

	"github.com/go-chi/chi/v5"
)

const maxRequestBody = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func idParam(r *http.Request) models.ID {
	return models.ID(strings.TrimSpace(chi.URLParam(r, "id")))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessions.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(s.session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
		Role:      session.Role,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		if err := s.sessions.SignOut(r.Context(), id); err != nil {
			logging.FromContext(r.Context(), s.log).Warn().Err(err).Msg("sign-out failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID: session.UserID,
		Email:  session.Email,
		Role:   session.Role,
	})
}

func (s *HTTPServer) handleBusinessTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.listings.BusinessTypes(r.Context(), credentialsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"business_types": types})
}

// handleListings filters active listings by the query string and sorts the
// result when sort is given. Without filters it lists every active listing,
// or every listing with include_inactive=true.
func (s *HTTPServer) handleListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := models.FilterCriteria{}
	for _, key := range []string{models.FilterQuery, models.FilterCategory, models.FilterMinPrice, models.FilterMaxPrice, models.FilterLocation} {
		if v := q.Get(key); v != "" {
			criteria[key] = v
		}
	}

	ctx := r.Context()
	creds := credentialsFromContext(ctx)
	var (
		listings []models.Listing
		err      error
	)
	switch {
	case len(criteria) > 0:
		listings, err = s.listings.Filter(ctx, creds, criteria)
	case q.Get("include_inactive") == "true":
		listings, err = s.listings.GetAll(ctx, creds)
	default:
		listings, err = s.listings.GetActive(ctx, creds)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeListings(w, listings, q.Get("sort"))
}

// handleSearchListings matches q against title and description.
func (s *HTTPServer) handleSearchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := s.listings.Search(r.Context(), credentialsFromContext(r.Context()), strings.TrimSpace(q.Get("q")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeListings(w, listings, q.Get("sort"))
}

func (s *HTTPServer) writeListings(w http.ResponseWriter, listings []models.Listing, sortBy string) {
	if sortBy != "" {
		listings = s.listings.Sort(listings, sortBy)
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": listings, "count": len(listings)})
}

func (s *HTTPServer) handleListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.listings.GetActiveByID(r.Context(), credentialsFromContext(r.Context()), idParam(r))
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

func (s *HTTPServer) handleListingDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.listings.GetDetails(r.Context(), credentialsFromContext(r.Context()), idParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if details == nil {
		writeError(w, http.StatusNotFound, "listing details not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) handleListingServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.listings.ListingServices(r.Context(), credentialsFromContext(r.Context()), idParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}
