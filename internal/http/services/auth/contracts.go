// Package auth implementa a máquina de estados do login contra o ERP.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zenithwms/zenith/internal/sankhya"
)

// Dispatcher é a fatia do cliente Sankhya que o login usa.
// Consultas vão por CallAsSystem; o registro de dispositivo e a validação
// de senha vão por Call (modo transacional).
type Dispatcher interface {
	Call(ctx context.Context, serviceName string, requestBody any) (*sankhya.Envelope, error)
	CallAsSystem(ctx context.Context, serviceName string, requestBody any) (*sankhya.Envelope, error)
}

// LoginInput são os dados da tentativa de login.
type LoginInput struct {
	Username    string
	Password    string
	DeviceToken string
	ClientIP    string
	UserAgent   string
}

// LoginResult é o resultado do login completo.
type LoginResult struct {
	Username          string
	CodUsu            int
	NumReg            int
	DeviceToken       string
	SessionToken      string
	IsTestEnvironment bool
}

// Service é o contrato do login.
type Service interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

// Erros de login
var (
	ErrUserNotFound       = errors.New("usuário não encontrado")
	ErrNoAppPermission    = errors.New("usuário sem permissão para o aplicativo")
	ErrInvalidCredentials = errors.New("credenciais de operador inválidas")
)

// DeviceTrustError sinaliza rejeição por confiança de dispositivo.
// Registered=false é o dispositivo recém-registrado aguardando ativação;
// Registered=true é o dispositivo conhecido mas inativo. Em ambos os casos
// o Token volta para o cliente guardar.
type DeviceTrustError struct {
	Token      string
	Registered bool
}

func (e *DeviceTrustError) Error() string {
	if e.Registered {
		return "dispositivo registrado mas não ativo"
	}
	return "dispositivo novo aguardando ativação"
}

// LockoutError sinaliza chave bloqueada por excesso de tentativas.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("bloqueado por excesso de tentativas, tente em %s", e.RetryAfter.Round(time.Second))
}
