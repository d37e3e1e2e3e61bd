package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/service"
)

// HandleCreateOrder records an order against a campaign.
// POST /api/v1/campaigns/{campaignID}/orders
func (api *API) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var input service.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := api.svc.CreateOrder(r.Context(), accountID(r), chi.URLParam(r, "campaignID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// HandleGetOrder returns an order, null when absent or unauthorized.
// GET /api/v1/orders/{orderID}
func (api *API) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := api.svc.GetOrder(r.Context(), accountID(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

// HandleUpdateOrder replaces an order's details and recomputes its total.
// PUT /api/v1/orders/{orderID}
func (api *API) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var input service.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := api.svc.UpdateOrder(r.Context(), accountID(r), chi.URLParam(r, "orderID"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandleDeleteOrder deletes an order. Deleting an absent order succeeds.
// DELETE /api/v1/orders/{orderID}
func (api *API) HandleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := api.svc.DeleteOrder(r.Context(), accountID(r), chi.URLParam(r, "orderID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleListOrdersByCampaign lists a campaign's orders.
// GET /api/v1/campaigns/{campaignID}/orders
func (api *API) HandleListOrdersByCampaign(w http.ResponseWriter, r *http.Request) {
	orders, err := api.svc.ListOrdersByCampaign(r.Context(), accountID(r), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}

// HandleListOrdersByProfile lists every order across a profile's campaigns.
// GET /api/v1/profiles/{profileID}/orders
func (api *API) HandleListOrdersByProfile(w http.ResponseWriter, r *http.Request) {
	orders, err := api.svc.ListOrdersByProfile(r.Context(), accountID(r), chi.URLParam(r, "profileID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}
