package sankhya

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/zenithwms/zenith/internal/observability/logger"
	"golang.org/x/sync/singleflight"
)

// ErrAuth indica que o login de sistema no ERP não produziu um bearer token.
var ErrAuth = errors.New("falha na autenticação do servidor proxy")

// Credentials são os quatro headers fixos do login de sistema.
type Credentials struct {
	AppKey   string
	Username string
	Password string
	Token    string
}

// TokenManager é o dono do bearer token de sistema compartilhado.
// A validade do token nunca é conhecida localmente: a expiração só é
// descoberta quando o gateway rejeita uma chamada, e aí o chamador pede
// um refresh forçado.
type TokenManager struct {
	http    *http.Client
	baseURL string
	creds   Credentials

	mu    sync.Mutex
	token string

	// colapsa logins concorrentes no cold start; correção não depende
	// disso, o endpoint de login é idempotente
	sf singleflight.Group
}

// NewTokenManager cria o gerenciador do token de sistema.
func NewTokenManager(httpClient *http.Client, baseURL string, creds Credentials) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenManager{
		http:    httpClient,
		baseURL: baseURL,
		creds:   creds,
	}
}

// Get devolve o token em cache, ou faz login no ERP se não houver (ou se
// forceRefresh for true) e guarda o resultado. Em falha o cache é limpo,
// para que a próxima chamada tente do zero em vez de reusar estado ruim.
func (m *TokenManager) Get(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		m.mu.Lock()
		cached := m.token
		m.mu.Unlock()
		if cached != "" {
			return cached, nil
		}
	}

	v, err, _ := m.sf.Do("system-token", func() (any, error) {
		tok, err := m.Login(ctx)
		m.mu.Lock()
		if err != nil {
			m.token = ""
		} else {
			m.token = tok
		}
		m.mu.Unlock()
		return tok, err
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// loginResponse é o corpo devolvido pelo endpoint de login do ERP.
type loginResponse struct {
	BearerToken string `json:"bearerToken"`
}

// Login faz um login novo no ERP e devolve o token, SEM tocar no cache.
// Usado diretamente pelo modo de consulta (CallAsSystem), que sempre exige
// um token fresco.
func (m *TokenManager) Login(ctx context.Context) (string, error) {
	log := logger.From(ctx).With(logger.Component("sankhya.token"))
	log.Debug("autenticando o sistema para obter bearer token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/login", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("appkey", m.creds.AppKey)
	req.Header.Set("username", m.creds.Username)
	req.Header.Set("password", m.creds.Password)
	req.Header.Set("token", m.creds.Token)

	resp, err := m.http.Do(req)
	if err != nil {
		log.Error("erro ao obter bearer token", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}

	var body loginResponse
	if err := json.Unmarshal(b, &body); err != nil || body.BearerToken == "" {
		log.Error("login de sistema não devolveu bearer token",
			logger.Int("status", resp.StatusCode))
		return "", ErrAuth
	}

	tokenRefreshes.Inc()
	log.Debug("token de sistema obtido com sucesso")
	return body.BearerToken, nil
}
