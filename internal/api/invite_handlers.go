package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/service"
)

// HandleCreateInvite issues a single-use invite code for a profile.
// POST /api/v1/profiles/{profileID}/invites
func (api *API) HandleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var input service.InviteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	invite, err := api.svc.CreateInvite(r.Context(), accountID(r), chi.URLParam(r, "profileID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

// HandleListInvites lists a profile's active invites. Owner only;
// non-owners get an empty list.
// GET /api/v1/profiles/{profileID}/invites
func (api *API) HandleListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := api.svc.ListInvites(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invites": invites,
		"total":   len(invites),
	})
}

// HandleDeleteInvite revokes an unredeemed invite by code.
// DELETE /api/v1/invites/{code}
func (api *API) HandleDeleteInvite(w http.ResponseWriter, r *http.Request) {
	if err := api.svc.DeleteInvite(r.Context(), accountID(r), chi.URLParam(r, "code")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleRedeemInvite consumes an invite code and grants the caller its
// permissions on the profile.
// POST /api/v1/invites/{code}/redeem
func (api *API) HandleRedeemInvite(w http.ResponseWriter, r *http.Request) {
	share, err := api.svc.RedeemInvite(r.Context(), accountID(r), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}
