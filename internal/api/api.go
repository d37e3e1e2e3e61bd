// Package api exposes the engine over HTTP. Handlers stay thin: decode,
// call the service, map the error kind to a status code. Authorization
// semantics (fail-open reads, fail-closed writes, idempotent deletes) live
// in the service pipelines, not here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
	"github.com/ignite/fundraiser-tracker/internal/service"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// API provides the HTTP handlers for the fundraiser engine.
type API struct {
	svc      *service.Service
	accounts storage.AccountRepository
}

// New creates the API over a service and the account repository the
// identity middleware upserts into.
func New(svc *service.Service, accounts storage.AccountRepository) *API {
	return &API{svc: svc, accounts: accounts}
}

// RegisterRoutes mounts all engine routes on the router. The identity
// middleware must already be installed upstream.
func (api *API) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", api.HandleCreateProfile)
		r.Get("/", api.HandleListProfiles)
		r.Route("/{profileID}", func(r chi.Router) {
			r.Get("/", api.HandleGetProfile)
			r.Put("/", api.HandleUpdateProfile)
			r.Delete("/", api.HandleDeleteProfile)
			r.Get("/campaigns", api.HandleListCampaigns)
			r.Post("/campaigns", api.HandleCreateCampaign)
			r.Get("/orders", api.HandleListOrdersByProfile)
			r.Get("/shares", api.HandleListShares)
			r.Put("/shares/{accountID}", api.HandlePutShare)
			r.Delete("/shares/{accountID}", api.HandleRevokeShare)
			r.Get("/invites", api.HandleListInvites)
			r.Post("/invites", api.HandleCreateInvite)
			r.Get("/report", api.HandleProfileReport)
		})
	})

	r.Route("/campaigns/{campaignID}", func(r chi.Router) {
		r.Get("/", api.HandleGetCampaign)
		r.Put("/", api.HandleUpdateCampaign)
		r.Delete("/", api.HandleDeleteCampaign)
		r.Get("/orders", api.HandleListOrdersByCampaign)
		r.Post("/orders", api.HandleCreateOrder)
	})

	r.Route("/orders/{orderID}", func(r chi.Router) {
		r.Get("/", api.HandleGetOrder)
		r.Put("/", api.HandleUpdateOrder)
		r.Delete("/", api.HandleDeleteOrder)
	})

	r.Route("/invites/{code}", func(r chi.Router) {
		r.Delete("/", api.HandleDeleteInvite)
		r.Post("/redeem", api.HandleRedeemInvite)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps service error kinds onto status codes. Reads never
// reach here on authorization failures (they fail open in the service), so
// 403/404 only ever leak from mutations, where the caller already proved
// they can see the resource or is being told no.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSONError(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSONError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInviteAlreadyUsed):
		writeJSONError(w, "invite already used", http.StatusConflict)
	case errors.Is(err, domain.ErrInviteExpired):
		writeJSONError(w, "invite expired", http.StatusGone)
	default:
		logger.Error("request failed", "error", err.Error())
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
