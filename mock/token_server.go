package mock

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

const jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// TokenServer mocks the OAuth2 token endpoint used for the service account JWT grant.
type TokenServer struct {
	AccessToken string
	// Status, when set to a non-2xx code, makes every exchange fail.
	Status int

	count int64
}

// Count returns the number of token exchanges received.
func (s *TokenServer) Count() int {
	return int(atomic.LoadInt64(&s.count))
}

func (s *TokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.count, 1)
	w.Header().Set("Content-Type", ApplicationJSON)

	if r.Method != http.MethodPost || r.FormValue("grant_type") != jwtBearerGrantType || r.FormValue("assertion") == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}
	if s.Status != 0 && (s.Status < 200 || s.Status >= 300) {
		w.WriteHeader(s.Status)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant", "error_description": "revoked"})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": s.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}
