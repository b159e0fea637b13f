package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa o logger singleton com a configuração dada.
// É idempotente: apenas a primeira chamada tem efeito.
// Deve ser chamado no início da aplicação (main.go).
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna o logger singleton.
// Se Init() não foi chamado, cria um logger padrão (dev, info).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named retorna um logger com um nome de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna um logger com campos adicionais.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync descarrega qualquer buffer pendente.
// Deve ser chamado com defer no main.go.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
