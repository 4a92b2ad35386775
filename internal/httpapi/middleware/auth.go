package middleware

import (
	"context"
	"net/http"
	"strings"
)

type Keys struct {
	Public []string
	Admin  []string
}

type Role int

const (
	RoleNone Role = iota
	RolePublic
	RoleAdmin
)

type roleKey struct{}

// RoleFrom reports the role RequireAny or RequireAdmin resolved for the
// request. With no keys configured every caller is an admin.
func RoleFrom(ctx context.Context) Role {
	r, _ := ctx.Value(roleKey{}).(Role)
	return r
}

// readAuth accepts a bearer token, X-API-Key, or a "key" query parameter.
// Browsers cannot set headers on websocket upgrades, hence the query form.
func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return strings.TrimSpace(k)
	}
	return strings.TrimSpace(r.URL.Query().Get("key"))
}

func hasKey(given string, set []string) bool {
	if given == "" || len(set) == 0 {
		return false
	}
	for _, k := range set {
		if k == given {
			return true
		}
	}
	return false
}

func (k Keys) role(r *http.Request) Role {
	if len(k.Public) == 0 && len(k.Admin) == 0 {
		return RoleAdmin
	}
	key := readAuth(r)
	switch {
	case hasKey(key, k.Admin):
		return RoleAdmin
	case hasKey(key, k.Public):
		return RolePublic
	}
	return RoleNone
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// RequireAny allows requests that present either a public or admin key.
// If no keys are configured, it allows all requests (handy for local dev).
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := keys.role(r)
			if role == RoleNone {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, role)))
		})
	}
}

// RequireAdmin only permits requests that present an admin key.
// If no admin keys are configured, it allows all requests (dev).
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	enabled := len(keys.Admin) > 0
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled && !hasKey(readAuth(r), keys.Admin) {
				if readAuth(r) == "" {
					deny(w, http.StatusUnauthorized, "unauthorized")
				} else {
					deny(w, http.StatusForbidden, "forbidden")
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, RoleAdmin)))
		})
	}
}
