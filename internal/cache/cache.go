// Package cache provê o cache de leitura dos armazéns e permissões.
//
// Suporta:
//   - Memory (in-process, o default do produto)
//   - Redis (para rodar mais de uma instância do proxy)
package cache

import (
	"context"
	"time"
)

// Client define as operações de cache.
type Client interface {
	// Get obtém um valor. Retorna ErrNotFound se não existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda um valor com TTL. TTL 0 usa o default do backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete remove uma key.
	Delete(ctx context.Context, key string) error

	// Close fecha a conexão.
	Close() error
}

// Config configuração para criar um cliente de cache.
type Config struct {
	// "memory" | "redis"
	Kind       string
	DefaultTTL time.Duration

	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key não encontrada" }

// IsNotFound verifica se o erro é de key inexistente.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New cria um cliente de cache conforme a configuração.
func New(cfg Config) Client {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.DefaultTTL)
	}
}
