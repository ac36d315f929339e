package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// exemptPaths bypass authentication so health checks and scrapers need no key.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const bearerPrefix = "Bearer "

// keyRing holds digests of the accepted keys, compared in constant time.
type keyRing [][sha256.Size]byte

func newKeyRing(keys []string) keyRing {
	ring := make(keyRing, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			ring = append(ring, sha256.Sum256([]byte(k)))
		}
	}
	return ring
}

func (r keyRing) accepts(token string) bool {
	sum := sha256.Sum256([]byte(token))
	ok := 0
	for i := range r {
		ok |= subtle.ConstantTimeCompare(sum[:], r[i][:])
	}
	return ok == 1
}

// BearerAuthMiddleware validates "Authorization: Bearer <key>" against apiKeys.
// With no non-empty keys, authentication is disabled.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	ring := newKeyRing(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(ring) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			msg := ""
			auth := r.Header.Get("Authorization")
			switch {
			case auth == "":
				msg = "missing authorization header"
			case !strings.HasPrefix(auth, bearerPrefix):
				msg = "authorization header must use Bearer scheme"
			case !ring.accepts(strings.TrimSpace(auth[len(bearerPrefix):])):
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="investlink"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
