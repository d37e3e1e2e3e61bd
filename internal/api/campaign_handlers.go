package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/service"
)

// HandleCreateCampaign creates a campaign under a profile.
// POST /api/v1/profiles/{profileID}/campaigns
func (api *API) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := api.svc.CreateCampaign(r.Context(), accountID(r), chi.URLParam(r, "profileID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// HandleListCampaigns lists a profile's campaigns.
// GET /api/v1/profiles/{profileID}/campaigns
func (api *API) HandleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := api.svc.ListCampaigns(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"total":     len(campaigns),
	})
}

// HandleGetCampaign returns a campaign, null when absent or unauthorized.
// GET /api/v1/campaigns/{campaignID}
func (api *API) HandleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := api.svc.GetCampaign(r.Context(), accountID(r), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaign": campaign})
}

// HandleUpdateCampaign updates campaign fields.
// PUT /api/v1/campaigns/{campaignID}
func (api *API) HandleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var input service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := api.svc.UpdateCampaign(r.Context(), accountID(r), chi.URLParam(r, "campaignID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// HandleDeleteCampaign deletes a campaign and its orders.
// DELETE /api/v1/campaigns/{campaignID}
func (api *API) HandleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := api.svc.DeleteCampaign(r.Context(), accountID(r), chi.URLParam(r, "campaignID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
