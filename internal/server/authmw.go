package server

import (
	"net/http"

	"github.com/sifis-home/wp6-mobile-application-api/internal/identity"
	"github.com/sifis-home/wp6-mobile-application-api/pkg/httpx"
)

// APIKeyHeader carries the authorization key scanned from the device QR
// code. Deployments that cannot set headers may pass ?api_key= instead.
const APIKeyHeader = "X-API-Key"

// requireKey gates every device and command route on the factory-written
// authorization key. All failure modes (missing, malformed, wrong) produce
// the same opaque 401 before any side-effecting component runs.
func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(APIKeyHeader)
		if presented == "" {
			presented = r.URL.Query().Get("api_key")
		}
		key, err := identity.ParseKey(presented)
		if err != nil || !key.Equal(s.identity.AuthorizationKey) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
