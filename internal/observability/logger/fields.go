package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS PADRÃO - HTTP
// =================================================================================

// RequestID cria um campo para o ID do request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method cria um campo para o método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path cria um campo para o path do request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status cria um campo para o status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs cria um campo para a duração em milissegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Duration cria um campo para a duração do request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes cria um campo para os bytes da resposta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP cria um campo para o IP do cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// UserAgent cria um campo para o User-Agent.
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// =================================================================================
// CAMPOS PADRÃO - NEGÓCIO
// =================================================================================

// Username cria um campo para o nome do operador.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// CodUsu cria um campo para o código interno do usuário no ERP.
func CodUsu(v int) zap.Field {
	return zap.Int("codusu", v)
}

// NumReg cria um campo para o número de registro da permissão do app.
func NumReg(v int) zap.Field {
	return zap.Int("numreg", v)
}

// Warehouse cria um campo para o código do armazém.
func Warehouse(v int) zap.Field {
	return zap.Int("codarm", v)
}

// Service cria um campo para o nome do serviço RPC do ERP.
func Service(v string) zap.Field {
	return zap.String("sankhya_service", v)
}

// =================================================================================
// CAMPOS PADRÃO - SISTEMA
// =================================================================================

// Component cria um campo para o componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op cria um campo para a operação atual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer cria um campo para a camada (controller, service, client).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err cria um campo para um erro.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS GENÉRICOS
// =================================================================================

// Count cria um campo para uma contagem.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String cria um campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int cria um campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool cria um campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any cria um campo genérico para qualquer tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
