package middlewares

import (
	"context"

	"github.com/zenithwms/zenith/internal/session"
)

type requestIDKey struct{}
type sessionKey struct{}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// GetRequestID extrai o request ID do contexto, se houver.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func setSession(ctx context.Context, p *session.Payload) context.Context {
	return context.WithValue(ctx, sessionKey{}, p)
}

// GetSession extrai a identidade do operador autenticado do contexto.
// Só é não-nil depois do RequireSession.
func GetSession(ctx context.Context) *session.Payload {
	if v, ok := ctx.Value(sessionKey{}).(*session.Payload); ok {
		return v
	}
	return nil
}
