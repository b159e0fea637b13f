package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/zenithwms/zenith/internal/alert"
	httperrors "github.com/zenithwms/zenith/internal/http/errors"
	"github.com/zenithwms/zenith/internal/observability/logger"
)

// WithRecover intercepta panics, loga com stack trace, notifica os
// operadores e responde 500. A notificação é canal lateral: nunca bloqueia
// nem muda a resposta.
func WithRecover(notifier alert.Notifier) Middleware {
	if notifier == nil {
		notifier = alert.NoOp{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := string(debug.Stack())
					logger.From(r.Context()).Error("erro não tratado",
						logger.Any("panic", rec),
						logger.String("stack", stack),
					)
					notifier.NotifyError(
						fmt.Sprintf("%v", rec),
						fmt.Sprintf("%s %s\n\n%s", r.Method, r.URL.Path, stack),
					)
					httperrors.WriteError(w, httperrors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
