package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ToContext injeta um logger no contexto.
// Usado pelos middlewares para propagar um logger "scoped" com campos do request.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From extrai o logger do contexto.
// Se não há logger no contexto, retorna o singleton. Isso permite usar
// From(ctx) em qualquer parte do código sem se preocupar se o middleware
// injetou o logger ou não.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return L()
}
