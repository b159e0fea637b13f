package errors

import (
	"fmt"
	"net/http"
)

// AppError define a estrutura padrão para erros da aplicação.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // Não é serializado, usado para o header
	Err        error  `json:"-"` // Erro original (causa), útil para logs
}

// Error implementa a interface error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acessar o erro original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is contra as variáveis base (compara por Code).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New cria um novo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError tenta converter um erro genérico em AppError.
// Se não for um AppError, devolve um erro interno genérico preservando a causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail agrega detalhes ao erro (útil para validações).
// Devolve uma CÓPIA para não mutar as variáveis globais base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithMessage substitui a mensagem (ex.: repassar statusMessage do ERP).
// Devolve uma CÓPIA.
func (e *AppError) WithMessage(message string) *AppError {
	newErr := *e
	newErr.Message = message
	return &newErr
}

// WithCause agrega o erro original (causa). Devolve uma CÓPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERROS PREDEFINIDOS
// =================================================================================

var (
	// 400 Bad Request
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "A solicitação contém sintaxe inválida ou parâmetros faltando.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "O corpo da solicitação não é um JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_FAILURE",
		Message:    "Dados da requisição inválidos.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidParameter = &AppError{
		Code:       "INVALID_PARAMETER",
		Message:    "Parâmetro numérico inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	// 401 Unauthorized
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Acesso negado. Nenhum token fornecido.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSessionExpired = &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "Sessão expirada. Por favor, faça login novamente.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "Usuário não encontrado.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrNoAppPermission = &AppError{
		Code:       "NO_APP_PERMISSION",
		Message:    "Usuário não possui permissão para acessar este aplicativo.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Credenciais de operador inválidas.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// 403 Forbidden
	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Você não tem permissão para executar esta ação.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "Token inválido.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrDeviceUnknown = &AppError{
		Code:       "DEVICE_UNKNOWN",
		Message:    "Dispositivo novo detectado. Solicite a um administrador para ativá-lo.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrDeviceInactive = &AppError{
		Code:       "DEVICE_INACTIVE",
		Message:    "Este dispositivo está registrado, mas não está ativo.",
		HTTPStatus: http.StatusForbidden,
	}

	// 404 Not Found
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "O recurso solicitado não foi encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrItemNotFound = &AppError{
		Code:       "ITEM_NOT_FOUND",
		Message:    "Produto não encontrado ou detalhes indisponíveis.",
		HTTPStatus: http.StatusNotFound,
	}

	// 405 Method Not Allowed
	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "O método HTTP não é permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	// 429 Too Many Requests
	ErrTooManyAttempts = &AppError{
		Code:       "TOO_MANY_ATTEMPTS",
		Message:    "Muitas tentativas de login. Tente novamente mais tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Muitas requisições para a API a partir deste IP, tente novamente após 15 minutos.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	// 5xx
	ErrInternal = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocorreu um erro interno no servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrUpstreamAuth = &AppError{
		Code:       "UPSTREAM_AUTH_FAILURE",
		Message:    "Falha na autenticação do servidor proxy.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrUpstreamRejected = &AppError{
		Code:       "UPSTREAM_REJECTED",
		Message:    "Falha na comunicação com a API Sankhya.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrUpstreamMalformed = &AppError{
		Code:       "UPSTREAM_MALFORMED",
		Message:    "A resposta da API não contém o corpo de dados esperado (responseBody).",
		HTTPStatus: http.StatusBadGateway,
	}
)
