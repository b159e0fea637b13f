package middlewares

import (
	"net/http"
	"strconv"

	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/http/helpers"
	"github.com/zenithwms/zenith/internal/rate"
)

// WithRateLimit aplica o limitador global da API por IP do cliente.
// Expõe os headers padrão de rate limit para o app ajustar o retry.
func WithRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), helpers.ClientIP(r))
			if err != nil {
				// falha do limitador não derruba a API
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
