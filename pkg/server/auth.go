package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/telemetry/logging"
)

// APIKeyHeader is accepted as an alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

type adminKey struct {
	name string
	hash [sha256.Size]byte
}

// Authenticator checks admin API keys. Keys can be replaced at runtime
// when configuration reloads.
type Authenticator struct {
	mu     sync.RWMutex
	keys   []adminKey
	logger *slog.Logger
}

// NewAuthenticator creates an authenticator for the enabled keys.
func NewAuthenticator(keys []config.APIKeyConfig, logger *slog.Logger) *Authenticator {
	a := &Authenticator{logger: logger.With("component", "server.auth")}
	a.SetKeys(keys)
	return a
}

// SetKeys replaces the accepted keys. Disabled keys are skipped.
func (a *Authenticator) SetKeys(keys []config.APIKeyConfig) {
	out := make([]adminKey, 0, len(keys))
	for _, k := range keys {
		if !k.IsEnabled() || k.Key == "" {
			continue
		}
		name := k.Name
		if name == "" {
			name = logging.RedactSecret(k.Key)
		}
		out = append(out, adminKey{name: name, hash: sha256.Sum256([]byte(k.Key))})
	}

	a.mu.Lock()
	a.keys = out
	a.mu.Unlock()
}

// Enabled reports whether any key is configured.
func (a *Authenticator) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys) > 0
}

// lookup compares in constant time against every key.
func (a *Authenticator) lookup(presented string) (string, bool) {
	h := sha256.Sum256([]byte(presented))

	a.mu.RLock()
	defer a.mu.RUnlock()

	name, ok := "", false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(h[:], k.hash[:]) == 1 {
			name, ok = k.name, true
		}
	}
	return name, ok
}

// Require wraps an admin handler.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			writeError(w, http.StatusForbidden, ErrorTypePermissionDenied, "admin API is disabled: no admin keys configured")
			return
		}

		key := extractKey(r)
		if key == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="movrr-admin"`)
			writeError(w, http.StatusUnauthorized, ErrorTypeAuthentication, "missing API key")
			return
		}
		name, ok := a.lookup(key)
		if !ok {
			a.logger.WarnContext(r.Context(), "invalid admin API key",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeError(w, http.StatusUnauthorized, ErrorTypeAuthentication, "invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(logging.WithPrincipal(r.Context(), name)))
	})
}

func extractKey(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		if scheme, token, ok := strings.Cut(v, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}
