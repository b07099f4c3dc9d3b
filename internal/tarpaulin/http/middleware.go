package http

import (
	"net/http"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

// RequireIdentity verifies the Authorization header and attaches the
// resulting identity to the request context. Requests without a valid
// credential never reach the wrapped handler.
func RequireIdentity(identity *service.IdentityService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identity.VerifyCredential(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeServiceError(w, slogx.FromContext(r.Context()), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalIdentity attaches an identity when a credential is present but
// lets anonymous requests through. A credential that is present and
// invalid is still rejected.
func OptionalIdentity(identity *service.IdentityService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := identity.VerifyCredential(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeServiceError(w, slogx.FromContext(r.Context()), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
