package sankhya

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope é a forma normalizada de toda resposta do gateway do ERP.
// status "1" = sucesso; statusMessage acompanha falhas; responseBody é
// opaco e depende do serviço chamado.
type Envelope struct {
	Status        string          `json:"status"`
	StatusMessage string          `json:"statusMessage,omitempty"`
	ResponseBody  json.RawMessage `json:"responseBody,omitempty"`
	Error         *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError é o descritor de erro que o gateway anexa em algumas falhas,
// inclusive a de token expirado.
type EnvelopeError struct {
	Descricao string `json:"descricao"`
}

// RejectedError indica que o ERP rejeitou a chamada (status != "1").
type RejectedError struct {
	StatusMessage string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("chamada rejeitada pelo ERP: %s", e.StatusMessage)
}

// MalformedError indica sucesso sem o responseBody esperado (contrato quebrado).
type MalformedError struct {
	Service string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("resposta de %s sem o corpo de dados esperado (responseBody)", e.Service)
}

// Check aplica a verificação compartilhada de falha de aplicação:
// status != "1" vira erro carregando o statusMessage (ou um fallback).
func (e *Envelope) Check() error {
	if e == nil || e.Status != "1" {
		msg := "Falha na comunicação com a API Sankhya."
		if e != nil && e.StatusMessage != "" {
			msg = e.StatusMessage
		}
		return &RejectedError{StatusMessage: msg}
	}
	return nil
}

// TokenExpired detecta a condição de token de sistema inválido/expirado:
// ou o descritor de erro com a frase conhecida, ou status "0" com mensagem
// de usuário não logado/não autorizado.
func (e *Envelope) TokenExpired() bool {
	if e == nil {
		return false
	}
	if e.Error != nil && strings.Contains(e.Error.Descricao, "Bearer Token inválido ou Expirado") {
		return true
	}
	if e.Status == "0" {
		if strings.Contains(e.StatusMessage, "Usuário não logado") ||
			strings.Contains(e.StatusMessage, "Não autorizado") {
			return true
		}
	}
	return false
}

// rowsBody é o corpo devolvido por DbExplorerSP.executeQuery.
type rowsBody struct {
	Rows [][]any `json:"rows"`
}

// Rows decodifica responseBody.rows de uma consulta.
// Nunca devolve nil em sucesso: ausência de linhas vira slice vazio.
func (e *Envelope) Rows(service string) ([][]any, error) {
	if err := e.Check(); err != nil {
		return nil, err
	}
	if len(e.ResponseBody) == 0 {
		return nil, &MalformedError{Service: service}
	}
	var body rowsBody
	if err := json.Unmarshal(e.ResponseBody, &body); err != nil {
		return nil, &MalformedError{Service: service}
	}
	if body.Rows == nil {
		return [][]any{}, nil
	}
	return body.Rows, nil
}

// Body decodifica responseBody em v, exigindo presença do corpo.
func (e *Envelope) Body(service string, v any) error {
	if err := e.Check(); err != nil {
		return err
	}
	if len(e.ResponseBody) == 0 {
		return &MalformedError{Service: service}
	}
	if err := json.Unmarshal(e.ResponseBody, v); err != nil {
		return &MalformedError{Service: service}
	}
	return nil
}
