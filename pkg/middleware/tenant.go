package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/httpapi"
)

const (
	OrganizationHeader = "X-Organization-ID"
	TeammateHeader     = "X-Teammate-ID"
)

// RequireTenantHeader resolves the organization scope from the request
// header and stores it in the context. Requests without a valid
// organization ID are rejected before reaching any controller.
func RequireTenantHeader() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(OrganizationHeader)
			if raw == "" {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "ORGANIZATION_REQUIRED",
					"missing "+OrganizationHeader+" header", nil)
				return
			}
			orgID, err := uuid.Parse(raw)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "ORGANIZATION_INVALID",
					"invalid organization id", map[string]string{"value": raw})
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithTenantID(r.Context(), orgID)))
		})
	}
}

// WithActorHeader stores the acting teammate's id when the header is
// present. Authorization decides per endpoint whether an actor is required.
func WithActorHeader() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(TeammateHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			actorID, err := uuid.Parse(raw)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "TEAMMATE_INVALID",
					"invalid teammate id", map[string]string{"value": raw})
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithActorID(r.Context(), actorID)))
		})
	}
}
