package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/service"
)

// HandleCreateProfile creates a profile owned by the caller.
// POST /api/v1/profiles
func (api *API) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := api.svc.CreateProfile(r.Context(), accountID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// HandleListProfiles returns the caller's own and shared-with profiles.
// GET /api/v1/profiles
func (api *API) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := api.svc.ListProfiles(r.Context(), accountID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"total":    len(profiles),
	})
}

// HandleGetProfile returns a single profile, or null when it doesn't exist
// or the caller can't see it. Same response either way.
// GET /api/v1/profiles/{profileID}
func (api *API) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := api.svc.GetProfile(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

// HandleUpdateProfile renames a profile.
// PUT /api/v1/profiles/{profileID}
func (api *API) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := api.svc.UpdateProfile(r.Context(), accountID(r), chi.URLParam(r, "profileID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleDeleteProfile deletes a profile and cascades through its campaigns,
// orders, shares, and invites.
// DELETE /api/v1/profiles/{profileID}
func (api *API) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := api.svc.DeleteProfile(r.Context(), accountID(r), chi.URLParam(r, "profileID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleProfileReport delegates to the configured report backend.
// GET /api/v1/profiles/{profileID}/report
func (api *API) HandleProfileReport(w http.ResponseWriter, r *http.Request) {
	url, err := api.svc.ProfileReport(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
