package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	applog "propcrm/internal/log"
)

// Middleware rejects requests without valid credentials. Paths starting
// with one of the public prefixes pass through, as does everything when
// the authenticator is disabled.
func (a *Authenticator) Middleware(publicPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}
			p, err := a.authenticate(r)
			if err != nil {
				slog.WarnContext(r.Context(), "Request rejected",
					applog.FieldComponent, applog.ComponentAuth,
					applog.FieldPath, r.URL.Path,
					applog.FieldError, err)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="propcrm"`)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func (a *Authenticator) authenticate(r *http.Request) (Principal, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if err := a.CheckAPIKey(key); err != nil {
			return Principal{}, err
		}
		return Principal{Subject: "api-key", Method: "api_key"}, nil
	}
	h := r.Header.Get("Authorization")
	if h == "" {
		return Principal{}, ErrMissingCredentials
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Principal{}, errors.New("invalid authorization header format")
	}
	c, err := a.VerifyToken(strings.TrimSpace(token))
	if err != nil {
		return Principal{}, err
	}
	return Principal{Subject: c.Subject, Method: "jwt"}, nil
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
