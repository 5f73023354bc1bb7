package middleware

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"medication-adherence/internal/platform/logger"
	"medication-adherence/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// DebugUserHeader identifica al usuario en modo dev (sin verifier).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext resuelve la identidad del request:
//   - verifier nil: modo dev, el usuario sale de X-Debug-User-ID.
//   - verifier != nil: Bearer token verificado; X-Debug-User-ID se ignora.
//
// Sin identidad el request sigue; cada handler responde 401 vía UserID.
// Los tokens rechazados se loguean en warn sin el token.
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"component": "auth"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				claims := auth.Claims{UserID: r.Header.Get(DebugUserHeader)}
				if claims.Subject() != "" {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("token rejected", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"path":       r.URL.Path,
					"error":      err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}
			if claims.Subject() == "" {
				log.Warn("token without subject", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"path":       r.URL.Path,
				})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims guarda claims normalizados en el contexto.
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	c.UserID = c.Subject()
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// UserID devuelve el dueño de los datos del request; false = 401.
func UserID(ctx context.Context) (string, bool) {
	c, ok := GetClaims(ctx)
	if !ok || c.Subject() == "" {
		return "", false
	}
	return c.Subject(), true
}

func bearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
