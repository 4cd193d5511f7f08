package middleware

import (
	"net/http"
	"strings"
)

// Keys are the configured API keys per access level.
type Keys struct {
	Public []string
	Admin  []string
}

type keySet map[string]struct{}

func newKeySet(lists ...[]string) keySet {
	set := keySet{}
	for _, l := range lists {
		for _, k := range l {
			if k = strings.TrimSpace(k); k != "" {
				set[k] = struct{}{}
			}
		}
	}
	return set
}

func (s keySet) has(k string) bool {
	if k == "" {
		return false
	}
	_, ok := s[k]
	return ok
}

// presentedKey looks at Authorization: Bearer, then X-API-Key, then the
// api_key query parameter used by websocket clients.
func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.URL.Query().Get("api_key"))
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// gate passes requests whose key is in allowed. An empty allowed set
// disables the check.
func gate(allowed keySet, rejectStatus int, rejectMsg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			switch {
			case allowed.has(key):
				next.ServeHTTP(w, r)
			case key == "":
				deny(w, http.StatusUnauthorized, "unauthorized")
			default:
				deny(w, rejectStatus, rejectMsg)
			}
		})
	}
}

// RequireAny admits public and admin keys.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return gate(newKeySet(keys.Public, keys.Admin), http.StatusUnauthorized, "unauthorized")
}

// RequireAdmin admits admin keys only: 401 without a key, 403 with any
// other key.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return gate(newKeySet(keys.Admin), http.StatusForbidden, "forbidden")
}
