package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse é a estrutura interna para a serialização JSON.
// Controla exatamente quais campos são enviados ao cliente.
type errorResponse struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Detail      string   `json:"detail,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	DeviceToken string   `json:"deviceToken,omitempty"`
	RetryAfter  int      `json:"retryAfterSeconds,omitempty"`
}

// WriteError escreve uma resposta HTTP com base no erro fornecido.
// Trata automaticamente *AppError e erros genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	writeResponse(w, appErr, errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// WriteValidationError escreve um 400 com a lista campo: mensagem,
// no formato que o app espera do antigo middleware de validação.
func WriteValidationError(w http.ResponseWriter, fieldErrors []string) {
	writeResponse(w, ErrValidation, errorResponse{
		Code:    ErrValidation.Code,
		Message: ErrValidation.Message,
		Errors:  fieldErrors,
	})
}

// WriteDeviceError escreve o 403 de confiança de dispositivo carregando o
// deviceToken de volta para o cliente persistir localmente.
func WriteDeviceError(w http.ResponseWriter, err *AppError, deviceToken string) {
	writeResponse(w, err, errorResponse{
		Code:        err.Code,
		Message:     err.Message,
		DeviceToken: deviceToken,
	})
}

// WriteLockoutError escreve o 429 com o tempo restante do bloqueio.
func WriteLockoutError(w http.ResponseWriter, retryAfterSeconds int) {
	writeResponse(w, ErrTooManyAttempts, errorResponse{
		Code:       ErrTooManyAttempts.Code,
		Message:    ErrTooManyAttempts.Message,
		RetryAfter: retryAfterSeconds,
	})
}

func writeResponse(w http.ResponseWriter, appErr *AppError, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
