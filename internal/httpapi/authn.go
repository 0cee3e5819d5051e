package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth is the single verification gate: it calls Verify exactly once per
// protected request and stores the resulting principal in the context.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		principal, err := a.tokens.Verify(r.Context(), token)
		if err != nil {
			// Only the error kind reaches the client; detail stays in
			// server-side metrics and logs.
			switch {
			case errors.Is(err, auth.ErrExpired):
				obs.VerifyFailed("expired")
				writeError(w, r, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrRevoked):
				obs.VerifyFailed("revoked")
				writeError(w, r, http.StatusUnauthorized, "token revoked")
			case errors.Is(err, auth.ErrMalformedToken):
				obs.VerifyFailed("malformed")
				writeError(w, r, http.StatusUnauthorized, "malformed token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize enforces the policy table for the request's principal. A deny is
// a 403 permission error, distinct from the 401 verification failures.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, action auth.Action, resourceScope string) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	if !auth.Authorize(principal, action, resourceScope) {
		obs.AuthorizationDenied()
		a.audit(r.Context(), "authz.denied", map[string]any{
			"action": string(action),
			"scope":  resourceScope,
			"path":   r.URL.Path,
		})
		writeError(w, r, http.StatusForbidden, "forbidden")
		return principal, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
