package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// RequireAccount resolves the caller's identity. Token verification happens
// upstream (gateway or auth proxy); by the time a request reaches the
// engine the account id in X-Account-ID is trusted. The account record is
// created on first sight and never mutated after.
func (api *API) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get("X-Account-ID")
		if accountID == "" {
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		existing, err := api.accounts.GetAccount(r.Context(), accountID)
		if err != nil {
			logger.Error("account lookup failed", "error", err.Error())
			writeJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		if existing == nil {
			account := &domain.Account{
				ID:        accountID,
				Email:     r.Header.Get("X-Account-Email"),
				CreatedAt: time.Now().UTC(),
			}
			if err := api.accounts.PutAccount(r.Context(), account); err != nil {
				logger.Error("account create failed", "error", err.Error())
				writeJSONError(w, "internal error", http.StatusInternalServerError)
				return
			}
			logger.Info("account created", "account_id", accountID)
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accountID returns the identity resolved by RequireAccount.
func accountID(r *http.Request) string {
	id, _ := r.Context().Value(accountIDKey).(string)
	return id
}
