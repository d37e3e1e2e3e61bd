package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/service"
)

// HandleListShares lists a profile's grants.
// GET /api/v1/profiles/{profileID}/shares
func (api *API) HandleListShares(w http.ResponseWriter, r *http.Request) {
	shares, err := api.svc.ListShares(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shares": shares,
		"total":  len(shares),
	})
}

// HandlePutShare grants or replaces an account's permissions on a profile.
// PUT /api/v1/profiles/{profileID}/shares/{accountID}
func (api *API) HandlePutShare(w http.ResponseWriter, r *http.Request) {
	var input service.ShareInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	share, err := api.svc.PutShare(r.Context(), accountID(r),
		chi.URLParam(r, "profileID"), chi.URLParam(r, "accountID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

// HandleRevokeShare removes an account's grant. Revoking an absent grant
// succeeds.
// DELETE /api/v1/profiles/{profileID}/shares/{accountID}
func (api *API) HandleRevokeShare(w http.ResponseWriter, r *http.Request) {
	err := api.svc.RevokeShare(r.Context(), accountID(r),
		chi.URLParam(r, "profileID"), chi.URLParam(r, "accountID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
