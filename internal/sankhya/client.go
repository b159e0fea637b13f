// Package sankhya fala com a API remota do ERP: login de sistema, token
// compartilhado e o envelope genérico do gateway de serviços.
package sankhya

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zenithwms/zenith/internal/observability/logger"
)

const gatewayPath = "/gateway/v1/mge/service.sbr"

// Client despacha chamadas RPC ao gateway do ERP em dois modos:
//
//   - Call: modo transacional. Usa o token de sistema em cache e, se o
//     gateway acusar token expirado, força um refresh e repete UMA vez.
//   - CallAsSystem: modo de consulta. Faz um login novo a cada chamada e
//     dispara uma única requisição, sem retry. Consultas são read-only e
//     pouco frequentes por ação do usuário; a latência extra do login
//     elimina qualquer possibilidade de token velho no caminho de leitura.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  *TokenManager
}

// NewClient cria o dispatcher. O http.Client deve trazer o timeout por
// chamada; o transport com keep-alive é configurado no wiring.
func NewClient(httpClient *http.Client, baseURL string, tokens *TokenManager) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		tokens:  tokens,
	}
}

// NewTransport devolve um transport com keep-alive ajustado para o volume
// de chamadas simultâneas esperado contra o gateway.
func NewTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     3 * time.Second,
	}
}

// requestWrapper embrulha o corpo como {requestBody} conforme o contrato
// do gateway.
type requestWrapper struct {
	RequestBody any `json:"requestBody"`
}

// Call executa serviceName no modo transacional.
//
// O laço de duas tentativas é explícito de propósito: tentativa, detecção
// de expiração, refresh, segunda tentativa, desistência. No máximo um retry
// automático por chamada.
func (c *Client) Call(ctx context.Context, serviceName string, requestBody any) (*Envelope, error) {
	log := logger.From(ctx).With(logger.Component("sankhya.client"), logger.Service(serviceName))

	token, err := c.tokens.Get(ctx, false)
	if err != nil {
		callsTotal.WithLabelValues(serviceName, "call", "error").Inc()
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		env, httpStatus, err := c.do(ctx, http.MethodPost, serviceName, requestBody, token)

		expired := (env != nil && env.TokenExpired()) ||
			httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden

		if err != nil && !expired {
			callsTotal.WithLabelValues(serviceName, "call", "error").Inc()
			return nil, fmt.Errorf("falha ao executar %s: %w", serviceName, err)
		}

		if !expired {
			callsTotal.WithLabelValues(serviceName, "call", "ok").Inc()
			return env, nil
		}

		if attempt == 1 {
			// segunda falha depois do retry: propaga com a mensagem do ERP
			callsTotal.WithLabelValues(serviceName, "call", "rejected").Inc()
			msg := "Token de sistema expirado."
			if env != nil && env.StatusMessage != "" {
				msg = env.StatusMessage
			}
			return nil, &RejectedError{StatusMessage: msg}
		}

		log.Warn("token de sistema inválido ou não autorizado, forçando renovação",
			logger.Int("attempt", attempt+1))
		token, err = c.tokens.Get(ctx, true)
		if err != nil {
			callsTotal.WithLabelValues(serviceName, "call", "error").Inc()
			return nil, err
		}
	}

	// inalcançável: o laço sempre retorna na segunda volta
	return nil, &RejectedError{StatusMessage: "Token de sistema expirado."}
}

// CallAsSystem executa serviceName no modo de consulta: login novo
// (ignorando o cache por completo) seguido de um único GET. Sem retry:
// qualquer falha propaga imediatamente.
func (c *Client) CallAsSystem(ctx context.Context, serviceName string, requestBody any) (*Envelope, error) {
	log := logger.From(ctx).With(logger.Component("sankhya.client"), logger.Service(serviceName))
	log.Debug("executando consulta como usuário de sistema")

	token, err := c.tokens.Login(ctx)
	if err != nil {
		callsTotal.WithLabelValues(serviceName, "query", "error").Inc()
		return nil, fmt.Errorf("falha ao obter token de sistema para a consulta: %w", err)
	}

	env, _, err := c.do(ctx, http.MethodGet, serviceName, requestBody, token)
	if err != nil {
		callsTotal.WithLabelValues(serviceName, "query", "error").Inc()
		return nil, fmt.Errorf("falha ao executar %s como sistema: %w", serviceName, err)
	}

	callsTotal.WithLabelValues(serviceName, "query", "ok").Inc()
	return env, nil
}

// do dispara uma requisição ao gateway e normaliza o envelope.
// Respostas HTTP de erro com corpo estruturado ainda são decodificadas,
// porque a detecção de token expirado depende do envelope.
func (c *Client) do(ctx context.Context, method, serviceName string, requestBody any, token string) (*Envelope, int, error) {
	payload, err := json.Marshal(requestWrapper{RequestBody: requestBody})
	if err != nil {
		return nil, 0, err
	}

	u := c.baseURL + gatewayPath + "?serviceName=" + url.QueryEscape(serviceName) + "&outputType=json"
	// o gateway aceita corpo também em GET (modo de consulta)
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		// sem resposta estruturada: devolve só o status HTTP; a detecção
		// de 401/403 no chamador ainda vale para o retry
		if resp.StatusCode >= 400 {
			return nil, resp.StatusCode, fmt.Errorf("gateway respondeu HTTP %d", resp.StatusCode)
		}
		return nil, resp.StatusCode, fmt.Errorf("envelope inválido do gateway: %w", err)
	}
	return &env, resp.StatusCode, nil
}
