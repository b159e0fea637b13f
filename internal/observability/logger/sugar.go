package logger

import (
	"context"

	"go.uber.org/zap"
)

// S retorna o SugaredLogger do singleton.
// Útil para logs rápidos com formato printf-style.
//
// Exemplo:
//
//	logger.S().Infof("usuário %s logado", username)
//	logger.S().Errorw("falha no login", "error", err, "username", username)
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// SFrom extrai o SugaredLogger do contexto.
func SFrom(ctx context.Context) *zap.SugaredLogger {
	return From(ctx).Sugar()
}
