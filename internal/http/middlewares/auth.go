package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/session"
)

// RequireSession valida o token de sessão e guarda a identidade no contexto.
//
// A ordem de busca do token segue o contrato do app:
//  1. header Authorization (formato "Bearer TOKEN"), para clientes de API
//  2. cookie de sessão, para a interface web
//
// Sem token → 401. Sessão expirada → 401. Token inválido → 403.
func RequireSession(sessions *session.Issuer, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(ah, "Bearer ") {
				token = strings.TrimSpace(ah[len("Bearer "):])
			}

			if token == "" {
				if ck, err := r.Cookie(cookieName); err == nil {
					token = ck.Value
				}
			}

			if token == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			payload, err := sessions.Parse(token)
			if err != nil {
				if errors.Is(err, session.ErrExpired) {
					httperrors.WriteError(w, httperrors.ErrSessionExpired)
					return
				}
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(setSession(r.Context(), payload)))
		})
	}
}
